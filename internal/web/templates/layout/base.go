package layout

import "github.com/mcoot/charsheets/internal/model"

// FlashMessage is a one-shot notice carried across a redirect
type FlashMessage struct {
	Type    string // success, info, warning or error
	Message string
}

// PageData holds what every page needs
type PageData struct {
	Title    string
	Identity *model.Identity // nil when anonymous
	Flash    *FlashMessage
}

func flashClass(flash *FlashMessage) string {
	return "flash-" + flash.Type
}
