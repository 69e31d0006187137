package pages

import (
	"bytes"
	"context"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/charsheets/internal/model"
	"github.com/mcoot/charsheets/internal/web/templates/layout"
)

func render(t *testing.T, c templ.Component) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func TestBaseShowsNavigationForIdentity(t *testing.T) {
	doc := render(t, NotFound(layout.PageData{
		Title:    "Not found",
		Identity: &model.Identity{ID: 1, Username: "gm", IsMaster: true},
		Flash:    &layout.FlashMessage{Type: "warning", Message: "<b>careful</b>"},
	}))

	assert.Equal(t, "Not found | Character Sheets", doc.Find("title").Text())
	assert.Contains(t, doc.Find("nav .identity").Text(), "gm")
	assert.Contains(t, doc.Find("nav .identity").Text(), "(master)")
	assert.Equal(t, 1, doc.Find("form[action='/logout']").Length())

	flash := doc.Find(".flash.flash-warning")
	require.Equal(t, 1, flash.Length())
	assert.Equal(t, "<b>careful</b>", flash.Text())
	assert.Equal(t, 0, flash.Find("b").Length())
}

func TestBaseHidesNavigationWhenAnonymous(t *testing.T) {
	doc := render(t, NotFound(layout.PageData{Title: "Not found"}))

	assert.Equal(t, 0, doc.Find("nav .identity").Length())
	assert.Equal(t, 0, doc.Find("form[action='/logout']").Length())
	assert.Equal(t, 0, doc.Find(".flash").Length())
	assert.Equal(t, "Not found", doc.Find("main h1").Text())
}

func TestHomeCarriesNextIntoLoginLinks(t *testing.T) {
	doc := render(t, Home(HomeData{
		PageData: layout.PageData{Title: "Home"},
		Identities: []*model.Identity{
			{ID: 1, Username: "gm", IsMaster: true},
			{ID: 2, Username: "ana"},
		},
		Next: "/visualizar/4",
	}))

	master := doc.Find("ul.identities li.master a")
	href, _ := master.Attr("href")
	assert.Equal(t, "/login/1?next=%2Fvisualizar%2F4", href)
	assert.Equal(t, "gm", master.Text())
	assert.Equal(t, "ana", doc.Find("ul.identities li.player a").Text())
}

func TestHomeWithoutIdentities(t *testing.T) {
	doc := render(t, Home(HomeData{PageData: layout.PageData{Title: "Home"}}))

	assert.Equal(t, 1, doc.Find("p.empty").Length())
	assert.Equal(t, 0, doc.Find("ul.identities").Length())
}

func TestDashboardLinksEachSheet(t *testing.T) {
	doc := render(t, Dashboard(DashboardData{
		PageData: layout.PageData{Title: "Dashboard"},
		Sheets: []SheetSummary{
			{ID: 7, Name: "Iris", Archetype: "Seer", PortraitURL: "/portraits/iris.png"},
			{ID: 9, Name: "Bram", PortraitURL: "/portraits/default.png"},
		},
	}))

	sheets := doc.Find("li.sheet")
	require.Equal(t, 2, sheets.Length())
	id, _ := sheets.First().Attr("data-id")
	assert.Equal(t, "7", id)
	assert.Equal(t, 1, doc.Find("a[href='/visualizar/7'].name").Length())
	assert.Equal(t, 1, doc.Find("form[action='/excluir/9']").Length())
	assert.Equal(t, 1, doc.Find(".archetype").Length())
}

func TestCreateFallsBackToDefaultSkills(t *testing.T) {
	doc := render(t, Create(CreateData{PageData: layout.PageData{Title: "New sheet"}}))

	form := doc.Find("form#create-sheet")
	for _, skill := range DefaultSkills {
		assert.Equal(t, 1, form.Find("input[name='skill_"+skill+"']").Length(), skill)
	}
	assert.Equal(t, 5, form.Find("fieldset.attributes input[type=number]").Length())
	assert.Equal(t, 1, form.Find("input[type=file][name=portrait]").Length())
}

func TestViewOrdersSkillsAndEscapesText(t *testing.T) {
	doc := render(t, View(ViewData{
		PageData: layout.PageData{Title: "Iris"},
		Character: &model.Character{
			ID:   3,
			Name: "Iris",
			Sheet: model.SheetDocument{
				Attributes: model.Attributes{Strength: 2, Resilience: 4},
				Status:     model.Status{PVMax: 16, PVCurrent: 12, FlowMax: 8, FlowCurrent: 8, Paradox: 1},
				Skills: model.Skills{
					"stealth":           model.IntSkill(3),
					"athletics":         model.IntSkill(1),
					model.TradeSkillKey: model.TextSkill("smith"),
				},
				Abilities: "<script>alert(1)</script>",
				Items:     []string{"rope", "lantern"},
			},
		},
		PortraitURL: "/portraits/iris.png",
	}))

	assert.Equal(t, "12 / 16", doc.Find("td.pv").Text())
	assert.Equal(t, "8 / 8", doc.Find("td.flow").Text())
	assert.Equal(t, "4", doc.Find("td.resilience").Text())

	var keys []string
	doc.Find("dl.skills dt").Each(func(_ int, s *goquery.Selection) {
		keys = append(keys, s.Text())
	})
	assert.Equal(t, []string{"athletics", "stealth", "Trade"}, keys)
	assert.Equal(t, "3", doc.Find("dd.skill-stealth").Text())
	assert.Equal(t, "smith", doc.Find("dd.trade").Text())

	assert.Equal(t, 0, doc.Find(".abilities script").Length())
	assert.Contains(t, doc.Find(".abilities p").Text(), "<script>")
	assert.Equal(t, 2, doc.Find("ul.items li").Length())

	alt, _ := doc.Find("img.portrait").Attr("alt")
	assert.Equal(t, "Portrait of Iris", alt)
}

func TestServerErrorOmitsEmptyReference(t *testing.T) {
	doc := render(t, ServerError(layout.PageData{Title: "Error"}, ""))

	assert.Equal(t, "Internal Server Error", doc.Find("h1").Text())
	assert.Equal(t, 0, doc.Find(".request-id").Length())
}
