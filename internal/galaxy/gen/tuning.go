package gen

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning collects the worldgen knobs. Values ship with defaults and
// can be overridden from a yaml file so rebalancing does not need a
// rebuild.
type Tuning struct {
	// Type mix for major locations.
	ColonyFraction  float64 `yaml:"colony_fraction"`
	StationFraction float64 `yaml:"station_fraction"`
	DerelictChance  float64 `yaml:"derelict_chance"`

	// Spiral placement.
	MinRadius float64 `yaml:"min_radius"`
	MaxRadius float64 `yaml:"max_radius"`

	// Routing.
	HubLinkRange    float64 `yaml:"hub_link_range"`
	HubLinksMin     int     `yaml:"hub_links_min"`
	HubLinksMax     int     `yaml:"hub_links_max"`
	RegionSize      int     `yaml:"region_size"`
	MinConnectivity int     `yaml:"min_connectivity"`

	// Gates.
	GateWealthFactor float64 `yaml:"gate_wealth_factor"`
	GateMaxChance    float64 `yaml:"gate_max_chance"`
	GateMinOffset    float64 `yaml:"gate_min_offset"`
	GateMaxOffset    float64 `yaml:"gate_max_offset"`

	// Economy.
	BlackMarketChance    float64 `yaml:"black_market_chance"`
	BlackMarketMaxWealth int     `yaml:"black_market_max_wealth"`

	// Dormant corridor pool.
	DormantChance      float64 `yaml:"dormant_chance"`
	DormantRadius      float64 `yaml:"dormant_radius"`
	DormantPerLocation int     `yaml:"dormant_per_location"`

	// Transaction chunking for large inserts.
	ChunkSize int `yaml:"chunk_size"`
}

// DefaultTuning returns the stock balance.
func DefaultTuning() *Tuning {
	return &Tuning{
		ColonyFraction:  0.45,
		StationFraction: 0.30,
		DerelictChance:  0.05,

		MinRadius: 10,
		MaxRadius: 90,

		HubLinkRange:    70,
		HubLinksMin:     2,
		HubLinksMax:     4,
		RegionSize:      12,
		MinConnectivity: 2,

		GateWealthFactor: 0.02,
		GateMaxChance:    0.9,
		GateMinOffset:    3,
		GateMaxOffset:    8,

		BlackMarketChance:    0.10,
		BlackMarketMaxWealth: 4,

		DormantChance:      0.15,
		DormantRadius:      100,
		DormantPerLocation: 5,

		ChunkSize: 15,
	}
}

// LoadTuning reads overrides from a yaml file on top of the defaults.
// A missing file is not an error.
func LoadTuning(path string) (*Tuning, error) {
	tuning := DefaultTuning()
	if path == "" {
		return tuning, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return tuning, nil
		}
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}

	if err := yaml.Unmarshal(data, tuning); err != nil {
		return nil, fmt.Errorf("failed to parse tuning file %s: %w", path, err)
	}
	return tuning, nil
}
