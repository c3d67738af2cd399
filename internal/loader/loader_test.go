package loader

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/napolitain/solver-mutations/internal/models"
)

func TestLoadEmbedded(t *testing.T) {
	tables, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("Failed to load embedded tables: %v", err)
	}

	if got := len(tables.Mutations); got != 40 {
		t.Errorf("expected 40 mutations, got %d", got)
	}
	if got := len(tables.Drops); got != 40 {
		t.Errorf("expected 40 drop rows, got %d", got)
	}
	if got := len(tables.CropOrder); got != 14 {
		t.Errorf("expected 14 crop columns, got %d", got)
	}

	ash, err := tables.Mutation("Ashwreath")
	if err != nil {
		t.Fatal(err)
	}
	if ash.Limit != 52 {
		t.Errorf("Ashwreath limit = %d, want 52", ash.Limit)
	}
	if !reflect.DeepEqual(ash.Recipe, models.Recipe{"Nether Wart": 2, "Fire": 2}) {
		t.Errorf("Ashwreath recipe = %v", ash.Recipe)
	}
	if ash.ProductID != "ASHWREATH" {
		t.Errorf("Ashwreath product id = %q", ash.ProductID)
	}

	if got := tables.Drops["Veilshroom"]["Red Mushroom"]; got != 66 {
		t.Errorf("Veilshroom red mushroom drop = %f, want 66", got)
	}
	if got := tables.GrowthStages("Veilshroom"); got != 1 {
		t.Errorf("Veilshroom growth stages should clamp to 1, got %d", got)
	}
	if got := tables.GrowthStages("Magic Jellybean"); got != 120 {
		t.Errorf("Magic Jellybean growth stages = %d, want 120", got)
	}
	if got := tables.LayoutRecipe("Godseed"); len(got) != 0 {
		t.Errorf("Godseed layout recipe should be empty, got %v", got)
	}
	if setup, ok := tables.SetupPerPlot("Shellfruit"); !ok || setup["Blastberry"] != 10 || setup["Turtlellini"] != 10 {
		t.Errorf("Shellfruit setup override = %v, %v", setup, ok)
	}
	for _, name := range []string{"Devourer", "Shellfruit", "Zombud", "Chloronite", "Fleshtrap"} {
		if !tables.IsDestructive(name) {
			t.Errorf("%s should be destructive", name)
		}
	}
	if tables.ProductIDs["Dead Bush"] != "DEAD_BUSH" {
		t.Errorf("Dead Bush product id missing")
	}
	if got := tables.CropsInGroup("Mushroom"); !reflect.DeepEqual(got, []string{"Red Mushroom", "Brown Mushroom"}) {
		t.Errorf("Mushroom group = %v", got)
	}
}

// TestRecipeIngredientsResolve checks every recipe ingredient can be priced or is a placeholder
func TestRecipeIngredientsResolve(t *testing.T) {
	tables, err := LoadEmbedded()
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range tables.MutationNames() {
		m := tables.Mutations[name]
		for ing := range m.Recipe {
			_, isCrop := tables.Crops[ing]
			_, isPriced := tables.ProductIDs[ing]
			if !isCrop && !isPriced && !tables.Pseudo[ing] {
				t.Errorf("%s: ingredient %q is neither crop, bazaar item nor placeholder", name, ing)
			}
		}
	}
}

func TestLoadDir(t *testing.T) {
	tables, err := LoadDir("../../data")
	if err != nil {
		t.Fatalf("Failed to load data dir: %v", err)
	}
	if len(tables.Mutations) == 0 {
		t.Error("no mutations loaded")
	}
}

func minimalFS() fstest.MapFS {
	return fstest.MapFS{
		"mutations.json": {Data: []byte(`{
			"pseudo_ingredients": ["Adjacent Crops"],
			"items": {"Fire": "FIRE"},
			"mutations": [
				{"name": "Ashwreath", "product_id": "ASHWREATH", "limit": 52, "growth_stages": 0,
				 "recipe": {"Nether Wart": 2, "Fire": 2}}
			]}`)},
		"crops.json": {Data: []byte(`{
			"crops": [{"name": "Nether Wart", "npc_price": 4}],
			"milestones": {"Nether Wart": 20200000}}`)},
		"drops.csv":      {Data: []byte("mutation,Nether Wart\nAshwreath,720.0\n")},
		"overrides.yaml": {Data: []byte("mutations:\n  Ashwreath:\n    growth_stages: 3\n")},
	}
}

func TestLoadTablesMinimal(t *testing.T) {
	tables, err := LoadTables(minimalFS())
	if err != nil {
		t.Fatalf("LoadTables failed: %v", err)
	}
	if got := tables.GrowthStages("Ashwreath"); got != 3 {
		t.Errorf("GrowthStages = %d, want 3", got)
	}
	if got := tables.Crops["Nether Wart"].Milestone; got != "Nether Wart" {
		t.Errorf("milestone should default to crop name, got %q", got)
	}
	if tables.ProductIDs["Ashwreath"] != "ASHWREATH" || tables.ProductIDs["Fire"] != "FIRE" {
		t.Errorf("product ids = %v", tables.ProductIDs)
	}
}

func TestLoadTablesErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"bad json", "mutations.json", `{`, "failed to parse mutations.json"},
		{"zero limit", "mutations.json", `{"mutations": [{"name": "Ashwreath", "limit": 0, "recipe": {}}]}`, "limit 0"},
		{"negative qty", "mutations.json", `{"mutations": [{"name": "Ashwreath", "limit": 5, "recipe": {"Fire": -1}}]}`, "quantities must be >= 0"},
		{"unknown crop column", "drops.csv", "mutation,Cactus\nAshwreath,1\n", `column "Cactus"`},
		{"unknown drop row", "drops.csv", "mutation,Nether Wart\nGhost,1\n", "unknown mutation"},
		{"bad drop value", "drops.csv", "mutation,Nether Wart\nAshwreath,lots\n", "invalid syntax"},
		{"unknown override", "overrides.yaml", "mutations:\n  Ghost:\n    destructive: true\n", "unknown mutation"},
		{"bad override chance", "overrides.yaml", "mutations:\n  Ashwreath:\n    mutation_chance: 2\n", "mutation_chance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := minimalFS()
			fsys[tt.file] = &fstest.MapFile{Data: []byte(tt.content)}

			_, err := LoadTables(fsys)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadTablesMissingFile(t *testing.T) {
	fsys := minimalFS()
	delete(fsys, "overrides.yaml")
	_, err := LoadTables(fsys)
	if err == nil || !strings.Contains(err.Error(), "failed to read overrides.yaml") {
		t.Errorf("expected missing overrides error, got %v", err)
	}
}

func TestUnknownMutationIsWrapped(t *testing.T) {
	fsys := minimalFS()
	fsys["drops.csv"] = &fstest.MapFile{Data: []byte("mutation,Nether Wart\nGhost,1\n")}
	_, err := LoadTables(fsys)
	if !errors.Is(err, models.ErrUnknownMutation) {
		t.Errorf("expected ErrUnknownMutation, got %v", err)
	}
}

func TestParseRecipe(t *testing.T) {
	tests := []struct {
		in      string
		want    models.Recipe
		wantErr bool
	}{
		{"Nether Wart=2, Fire=2", models.Recipe{"Nether Wart": 2, "Fire": 2}, false},
		{"Wheat=4,", models.Recipe{"Wheat": 4}, false},
		{"", models.Recipe{}, false},
		{"Wheat", nil, true},
		{"Wheat=x", nil, true},
		{"Wheat=-1", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRecipe(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRecipe(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseRecipe(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
