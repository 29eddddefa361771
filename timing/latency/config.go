package latency

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// RegionTiming describes the access timing of one address range.
type RegionTiming struct {
	// Name identifies the region in reports.
	Name string `json:"name"`

	// Start and End bound the region. Both are inclusive.
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`

	// NonSequential is the cost in cycles of an N access, wait states included.
	NonSequential uint64 `json:"non_sequential"`

	// Sequential is the cost in cycles of an S access, wait states included.
	Sequential uint64 `json:"sequential"`

	// Width is the data bus width in bits (8, 16 or 32). Wider accesses are
	// split into several bus transfers.
	Width uint8 `json:"width"`
}

// Contains reports whether addr falls in the region.
func (r RegionTiming) Contains(addr uint32) bool {
	return addr >= r.Start && addr <= r.End
}

// FetchBufferConfig configures the instruction fetch buffer placed in front
// of slow memory.
type FetchBufferConfig struct {
	Enabled bool `json:"enabled"`

	// Size in bytes.
	Size int `json:"size"`
	// Associativity (number of ways).
	Associativity int `json:"associativity"`
	// BlockSize in bytes.
	BlockSize int `json:"block_size"`
	// HitLatency is the cost of a fetch served by the buffer.
	HitLatency uint64 `json:"hit_latency"`
}

// TimingConfig holds the memory timing of the system around the core.
// The defaults model the Game Boy Advance memory map with WAITCNT cleared.
type TimingConfig struct {
	// Regions lists the timed address ranges. They must not overlap.
	Regions []RegionTiming `json:"regions"`

	// UnmappedNonSequential and UnmappedSequential cost accesses that hit no region.
	UnmappedNonSequential uint64 `json:"unmapped_non_sequential"`
	UnmappedSequential    uint64 `json:"unmapped_sequential"`

	// IdleCycles is the cost of one internal cycle. Default: 1 cycle.
	IdleCycles uint64 `json:"idle_cycles"`

	// FetchBuffer configures the optional instruction fetch buffer.
	FetchBuffer FetchBufferConfig `json:"fetch_buffer"`
}

// DefaultTimingConfig returns a TimingConfig with GBA default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		Regions: []RegionTiming{
			{Name: "bios", Start: 0x00000000, End: 0x00003FFF, NonSequential: 1, Sequential: 1, Width: 32},
			{Name: "ewram", Start: 0x02000000, End: 0x02FFFFFF, NonSequential: 3, Sequential: 3, Width: 16},
			{Name: "iwram", Start: 0x03000000, End: 0x03FFFFFF, NonSequential: 1, Sequential: 1, Width: 32},
			{Name: "io", Start: 0x04000000, End: 0x040003FF, NonSequential: 1, Sequential: 1, Width: 32},
			{Name: "palette", Start: 0x05000000, End: 0x050003FF, NonSequential: 1, Sequential: 1, Width: 16},
			{Name: "vram", Start: 0x06000000, End: 0x06017FFF, NonSequential: 1, Sequential: 1, Width: 16},
			{Name: "oam", Start: 0x07000000, End: 0x070003FF, NonSequential: 1, Sequential: 1, Width: 32},
			{Name: "rom0", Start: 0x08000000, End: 0x09FFFFFF, NonSequential: 5, Sequential: 3, Width: 16},
			{Name: "rom1", Start: 0x0A000000, End: 0x0BFFFFFF, NonSequential: 5, Sequential: 5, Width: 16},
			{Name: "rom2", Start: 0x0C000000, End: 0x0DFFFFFF, NonSequential: 5, Sequential: 9, Width: 16},
			{Name: "sram", Start: 0x0E000000, End: 0x0E00FFFF, NonSequential: 5, Sequential: 5, Width: 8},
		},
		UnmappedNonSequential: 1,
		UnmappedSequential:    1,
		IdleCycles:            1,
		FetchBuffer: FetchBufferConfig{
			Enabled:       false,
			Size:          256,
			Associativity: 2,
			BlockSize:     16,
			HitLatency:    1,
		},
	}
}

// LoadConfig loads a TimingConfig from a JSON file. Fields missing from the
// file keep their default values.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that every region and the fetch buffer are well formed.
func (c *TimingConfig) Validate() error {
	if c.IdleCycles == 0 {
		return fmt.Errorf("idle_cycles must be > 0")
	}
	if c.UnmappedNonSequential == 0 || c.UnmappedSequential == 0 {
		return fmt.Errorf("unmapped access costs must be > 0")
	}

	for _, r := range c.Regions {
		if r.End < r.Start {
			return fmt.Errorf("region %q: end 0x%08X is below start 0x%08X", r.Name, r.End, r.Start)
		}
		if r.NonSequential == 0 || r.Sequential == 0 {
			return fmt.Errorf("region %q: access costs must be > 0", r.Name)
		}
		switch r.Width {
		case 8, 16, 32:
		default:
			return fmt.Errorf("region %q: width must be 8, 16 or 32, got %d", r.Name, r.Width)
		}
	}

	regions := append([]RegionTiming(nil), c.Regions...)
	sort.Slice(regions, func(i, j int) bool { return regions[i].Start < regions[j].Start })
	for i := 1; i < len(regions); i++ {
		if regions[i].Start <= regions[i-1].End {
			return fmt.Errorf("region %q overlaps region %q", regions[i].Name, regions[i-1].Name)
		}
	}

	return c.FetchBuffer.validate()
}

func (f FetchBufferConfig) validate() error {
	if !f.Enabled {
		return nil
	}
	if f.Size <= 0 || f.Associativity <= 0 || f.BlockSize <= 0 {
		return fmt.Errorf("fetch_buffer: size, associativity and block_size must be > 0")
	}
	if f.BlockSize%4 != 0 || f.BlockSize&(f.BlockSize-1) != 0 {
		return fmt.Errorf("fetch_buffer: block_size must be a power of two of at least 4 bytes")
	}
	if f.Size%(f.Associativity*f.BlockSize) != 0 {
		return fmt.Errorf("fetch_buffer: size must be a multiple of associativity * block_size")
	}
	if f.HitLatency == 0 {
		return fmt.Errorf("fetch_buffer: hit_latency must be > 0")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	clone.Regions = append([]RegionTiming(nil), c.Regions...)
	return &clone
}
