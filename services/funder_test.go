package services

import (
	"testing"

	"github.com/prodiversa/coop-api/models"
)

func TestSeedCatalogConsistency(t *testing.T) {
	validCategories := map[string]bool{
		models.CategoriaServicios:      true,
		models.CategoriaPersonal:       true,
		models.CategoriaGastosDirectos: true,
		models.CategoriaInversiones:    true,
		models.CategoriaIndirectos:     true,
	}

	codes := make(map[string]bool)
	for _, f := range fundersData {
		codes[f.code] = true

		templates, ok := funderTemplates[f.code]
		if !ok || len(templates) == 0 {
			t.Fatalf("funder %s has no templates", f.code)
		}

		seenCodes := make(map[string]bool)
		lastOrder := 0
		for _, tpl := range templates {
			if !validCategories[tpl.category] {
				t.Fatalf("funder %s template %s has invalid category %q", f.code, tpl.code, tpl.category)
			}
			if seenCodes[tpl.code] {
				t.Fatalf("funder %s template code %s duplicated", f.code, tpl.code)
			}
			seenCodes[tpl.code] = true
			if tpl.order <= lastOrder {
				t.Fatalf("funder %s template %s order %d not strictly increasing", f.code, tpl.code, tpl.order)
			}
			lastOrder = tpl.order
		}
	}

	for code := range funderTemplates {
		if !codes[code] {
			t.Fatalf("templates defined for unknown funder %s", code)
		}
	}
}

func TestFinanciadorMappingTargetsSeededFunders(t *testing.T) {
	codes := make(map[string]bool)
	for _, f := range fundersData {
		codes[f.code] = true
	}
	for financiador, code := range financiadorToFunderCode {
		if !codes[code] {
			t.Fatalf("financiador %q maps to unseeded funder code %q", financiador, code)
		}
	}
}

func TestEveryFunderHasAuditLine(t *testing.T) {
	for code, templates := range funderTemplates {
		found := false
		for i := range templates {
			line := models.ProjectBudgetLine{
				Name:     templates[i].name,
				Category: templates[i].category,
			}
			if isAuditLine(&line) {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("funder %s has no identifiable audit line", code)
		}
	}
}

func TestFunderSeedRuleParameters(t *testing.T) {
	byCode := make(map[string]funderSeed)
	for _, f := range fundersData {
		byCode[f.code] = f
	}

	aacid := byCode["AACID"]
	if aacid.maxIndirectPercentage != "" || aacid.maxPersonnelPercentage != "" || aacid.minAmountForAudit != "" {
		t.Fatal("AACID must carry no rule parameters")
	}

	ayto := byCode["AYTO"]
	if ayto.maxIndirectPercentage != "7.00" || ayto.maxPersonnelPercentage != "50.00" || ayto.minAmountForAudit != "30000.00" {
		t.Fatalf("AYTO rule parameters wrong: %+v", ayto)
	}

	if byCode["AECID"].maxIndirectPercentage != "10.00" {
		t.Fatalf("AECID indirect cap = %q, want 10.00", byCode["AECID"].maxIndirectPercentage)
	}
	if byCode["DIPU"].maxIndirectPercentage != "8.00" {
		t.Fatalf("DIPU indirect cap = %q, want 8.00", byCode["DIPU"].maxIndirectPercentage)
	}
}
