package loader

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/napolitain/solver-mutations/data"
	"github.com/napolitain/solver-mutations/internal/models"
)

const (
	mutationsFile = "mutations.json"
	cropsFile     = "crops.json"
	dropsFile     = "drops.csv"
	overridesFile = "overrides.yaml"
)

// MutationsJSON represents the JSON structure of mutations.json
type MutationsJSON struct {
	PseudoIngredients []string          `json:"pseudo_ingredients"`
	Items             map[string]string `json:"items"`
	Mutations         []MutationJSON    `json:"mutations"`
}

// MutationJSON represents one mutation entry
type MutationJSON struct {
	Name         string         `json:"name"`
	ProductID    string         `json:"product_id"`
	Limit        int            `json:"limit"`
	GrowthStages int            `json:"growth_stages"`
	Recipe       map[string]int `json:"recipe"`
}

// CropsJSON represents the JSON structure of crops.json
type CropsJSON struct {
	Crops []struct {
		Name      string  `json:"name"`
		NPCPrice  float64 `json:"npc_price"`
		Milestone string  `json:"milestone"`
	} `json:"crops"`
	Milestones map[string]float64 `json:"milestones"`
}

// OverridesYAML represents overrides.yaml
type OverridesYAML struct {
	Mutations map[string]models.Override `yaml:"mutations"`
}

// LoadEmbedded loads the tables compiled into the binary
func LoadEmbedded() (*models.Tables, error) {
	return LoadTables(data.FS)
}

// LoadDir loads the tables from a data directory on disk
func LoadDir(dataDir string) (*models.Tables, error) {
	return LoadTables(os.DirFS(dataDir))
}

// Load picks the data directory when given, the embedded tables otherwise
func Load(dataDir string) (*models.Tables, error) {
	if dataDir == "" {
		return LoadEmbedded()
	}
	return LoadDir(dataDir)
}

// LoadTables reads every table from fsys and cross-checks them
func LoadTables(fsys fs.FS) (*models.Tables, error) {
	tables := models.NewTables()

	if err := loadMutations(fsys, tables); err != nil {
		return nil, err
	}
	if err := loadCrops(fsys, tables); err != nil {
		return nil, err
	}
	if err := loadDrops(fsys, tables); err != nil {
		return nil, err
	}
	if err := loadOverrides(fsys, tables); err != nil {
		return nil, err
	}

	return tables, nil
}

func loadMutations(fsys fs.FS, tables *models.Tables) error {
	raw, err := fs.ReadFile(fsys, mutationsFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", mutationsFile, err)
	}

	var parsed MutationsJSON
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("failed to parse %s: %w", mutationsFile, err)
	}

	for _, name := range parsed.PseudoIngredients {
		tables.Pseudo[name] = true
	}
	for name, id := range parsed.Items {
		tables.ProductIDs[name] = id
	}

	for _, m := range parsed.Mutations {
		if m.Name == "" {
			return fmt.Errorf("%s: mutation without a name", mutationsFile)
		}
		if _, dup := tables.Mutations[m.Name]; dup {
			return fmt.Errorf("%s: duplicate mutation %q", mutationsFile, m.Name)
		}
		if m.Limit < 1 {
			return fmt.Errorf("%s: %s has limit %d, want >= 1", mutationsFile, m.Name, m.Limit)
		}
		recipe := make(models.Recipe, len(m.Recipe))
		for ing, qty := range m.Recipe {
			if qty < 0 {
				return fmt.Errorf("%s: %s needs %d %s, quantities must be >= 0", mutationsFile, m.Name, qty, ing)
			}
			recipe[ing] = qty
		}

		tables.Mutations[m.Name] = &models.Mutation{
			Name:         m.Name,
			ProductID:    m.ProductID,
			Limit:        m.Limit,
			GrowthStages: m.GrowthStages,
			Recipe:       recipe,
		}
		if m.ProductID != "" {
			tables.ProductIDs[m.Name] = m.ProductID
		}
	}

	return nil
}

func loadCrops(fsys fs.FS, tables *models.Tables) error {
	raw, err := fs.ReadFile(fsys, cropsFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cropsFile, err)
	}

	var parsed CropsJSON
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("failed to parse %s: %w", cropsFile, err)
	}

	for _, c := range parsed.Crops {
		milestone := c.Milestone
		if milestone == "" {
			milestone = c.Name
		}
		tables.Crops[c.Name] = &models.Crop{Name: c.Name, NPCPrice: c.NPCPrice, Milestone: milestone}
	}
	for group, req := range parsed.Milestones {
		if req <= 0 {
			return fmt.Errorf("%s: milestone %q requirement must be > 0", cropsFile, group)
		}
		tables.Milestones[group] = req
	}
	return nil
}

func loadDrops(fsys fs.FS, tables *models.Tables) error {
	f, err := fsys.Open(dropsFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dropsFile, err)
	}
	defer f.Close()

	header, rows, err := readDropTable(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", dropsFile, err)
	}

	for _, crop := range header {
		if _, ok := tables.Crops[crop]; !ok {
			return fmt.Errorf("%s: column %q is not a known crop", dropsFile, crop)
		}
	}
	tables.CropOrder = header

	for _, row := range rows {
		if _, ok := tables.Mutations[row.mutation]; !ok {
			return fmt.Errorf("%s: %w: %q", dropsFile, models.ErrUnknownMutation, row.mutation)
		}
		drops := make(map[string]float64)
		for i, v := range row.values {
			if v > 0 {
				drops[header[i]] = v
			}
		}
		tables.Drops[row.mutation] = drops
	}
	return nil
}

func loadOverrides(fsys fs.FS, tables *models.Tables) error {
	raw, err := fs.ReadFile(fsys, overridesFile)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", overridesFile, err)
	}

	var parsed OverridesYAML
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("failed to parse %s: %w", overridesFile, err)
	}

	for name, o := range parsed.Mutations {
		if _, ok := tables.Mutations[name]; !ok {
			return fmt.Errorf("%s: %w: %q", overridesFile, models.ErrUnknownMutation, name)
		}
		if o.MutationChance != nil && (*o.MutationChance < 0 || *o.MutationChance > 1) {
			return fmt.Errorf("%s: %s mutation_chance must be in [0, 1]", overridesFile, name)
		}
		for item, qty := range o.SetupPerPlot {
			if qty < 0 {
				return fmt.Errorf("%s: %s setup_per_plot %s must be >= 0", overridesFile, name, item)
			}
		}
		tables.Overrides[name] = o
	}
	return nil
}

// ParseRecipe parses "A=2,B=3" into a recipe
func ParseRecipe(s string) (models.Recipe, error) {
	recipe := models.Recipe{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, qtyStr, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("recipe entry %q: want name=quantity", part)
		}
		qty, err := strconv.Atoi(strings.TrimSpace(qtyStr))
		if err != nil {
			return nil, fmt.Errorf("recipe entry %q: %w", part, err)
		}
		if qty < 0 {
			return nil, fmt.Errorf("recipe entry %q: quantity must be >= 0", part)
		}
		recipe[strings.TrimSpace(name)] = qty
	}
	return recipe, nil
}
