package device

import (
	"sync"

	"github.com/rs/zerolog"

	"traind/pkg/types"
)

// preferenceOrder lists every known preference in presentation order.
var preferenceOrder = []types.DevicePreference{
	types.PreferenceAuto,
	types.PreferenceGPUOnly,
	types.PreferenceCPUOnly,
	types.PreferenceNVIDIAOnly,
	types.PreferenceAMDOnly,
	types.PreferenceIntelOnly,
}

var preferenceNames = map[types.DevicePreference]struct{ name, desc string }{
	types.PreferenceAuto:       {"Auto", "Pick the best available device"},
	types.PreferenceGPUOnly:    {"GPU Only", "Any non-CPU device"},
	types.PreferenceCPUOnly:    {"CPU Only", "Host CPU only"},
	types.PreferenceNVIDIAOnly: {"NVIDIA Only", "NVIDIA devices only"},
	types.PreferenceAMDOnly:    {"AMD Only", "AMD devices only"},
	types.PreferenceIntelOnly:  {"Intel Only", "Intel devices only"},
}

// Selector owns the device preference and drives the catalog's single
// selection slot.
type Selector struct {
	log zerolog.Logger
	cat *Catalog

	mu   sync.Mutex
	pref types.DevicePreference
}

// NewSelector wraps cat with the given starting preference. An unknown
// starting preference falls back to auto.
func NewSelector(log zerolog.Logger, cat *Catalog, pref types.DevicePreference) *Selector {
	if !knownPreference(pref) {
		if pref != "" {
			log.Warn().Str("preference", string(pref)).Msg("unknown default preference, using auto")
		}
		pref = types.PreferenceAuto
	}
	return &Selector{log: log, cat: cat, pref: pref}
}

// Preference returns the active preference.
func (s *Selector) Preference() types.DevicePreference {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pref
}

// AutoSelect picks the best device satisfying the active preference and
// marks it selected. Ranking: discrete non-CPU entries first, then
// score descending, then catalog order.
func (s *Selector) AutoSelect() (types.Device, error) {
	s.mu.Lock()
	pref := s.pref
	s.mu.Unlock()

	best, ok := pickBest(s.cat.Devices(), pref)
	if !ok {
		return types.Device{}, ErrPreferenceUnsatisfiable(string(pref))
	}
	d, err := s.cat.MarkSelected(best.ID)
	if err != nil {
		return types.Device{}, err
	}
	s.log.Info().Str("device", d.ID).Str("name", d.Name).Msg("device auto-selected")
	return d, nil
}

// SetPreference validates and applies a new preference, re-selecting
// the best matching device. When no device satisfies the requested
// preference, the previous preference and selection stay in effect.
func (s *Selector) SetPreference(pref types.DevicePreference) (types.Device, error) {
	if !knownPreference(pref) {
		return types.Device{}, ErrUnknownPreference(string(pref))
	}
	best, ok := pickBest(s.cat.Devices(), pref)
	if !ok {
		return types.Device{}, ErrPreferenceUnsatisfiable(string(pref))
	}
	s.mu.Lock()
	s.pref = pref
	s.mu.Unlock()
	d, err := s.cat.MarkSelected(best.ID)
	if err != nil {
		return types.Device{}, err
	}
	s.log.Info().Str("preference", string(pref)).Str("device", d.ID).Msg("device preference applied")
	return d, nil
}

// Select marks the device with id selected, regardless of preference.
func (s *Selector) Select(id string) (types.Device, error) {
	d, err := s.cat.MarkSelected(id)
	if err != nil {
		return types.Device{}, err
	}
	s.log.Info().Str("device", d.ID).Str("name", d.Name).Msg("device selected")
	return d, nil
}

// Selected returns the currently selected device, if any.
func (s *Selector) Selected() (types.Device, bool) {
	return s.cat.Selected()
}

// Reselect re-applies the active preference after a catalog refresh
// dropped the previous selection.
func (s *Selector) Reselect() (types.Device, error) {
	return s.AutoSelect()
}

// Preferences describes every known preference and whether the current
// catalog can satisfy it.
func (s *Selector) Preferences() []types.PreferenceInfo {
	devices := s.cat.Devices()
	out := make([]types.PreferenceInfo, 0, len(preferenceOrder))
	for _, p := range preferenceOrder {
		meta := preferenceNames[p]
		_, ok := pickBest(devices, p)
		out = append(out, types.PreferenceInfo{
			ID:          p,
			Name:        meta.name,
			Description: meta.desc,
			Available:   ok,
		})
	}
	return out
}

// Settings assembles the combined selection view.
func (s *Selector) Settings() types.DeviceSettings {
	settings := types.DeviceSettings{
		AvailableDevices:     s.cat.Devices(),
		AvailablePreferences: s.Preferences(),
		CurrentPreference:    s.Preference(),
	}
	if d, ok := s.cat.Selected(); ok {
		settings.CurrentDevice = &d
	}
	return settings
}

func knownPreference(pref types.DevicePreference) bool {
	_, ok := preferenceNames[pref]
	return ok
}

func matchesPreference(d types.Device, pref types.DevicePreference) bool {
	// Vendor preferences pick GPU vendors; an Intel CPU does not
	// satisfy intel_only. CPU selection has its own preference.
	gpu := d.Type != types.BackendCPU
	switch pref {
	case types.PreferenceAuto:
		return true
	case types.PreferenceGPUOnly:
		return gpu
	case types.PreferenceCPUOnly:
		return !gpu
	case types.PreferenceNVIDIAOnly:
		return gpu && d.Vendor == types.VendorNVIDIA
	case types.PreferenceAMDOnly:
		return gpu && d.Vendor == types.VendorAMD
	case types.PreferenceIntelOnly:
		return gpu && d.Vendor == types.VendorIntel
	default:
		return false
	}
}

// pickBest scans devices in catalog order and keeps the highest-ranked
// match. Strict comparisons keep the earlier entry on ties, which is
// what makes catalog order the documented tie-break.
func pickBest(devices []types.Device, pref types.DevicePreference) (types.Device, bool) {
	best := -1
	for i, d := range devices {
		if !matchesPreference(d, pref) {
			continue
		}
		if best < 0 || ranksAbove(d, devices[best]) {
			best = i
		}
	}
	if best < 0 {
		return types.Device{}, false
	}
	return devices[best], true
}

func ranksAbove(a, b types.Device) bool {
	at, bt := selectionTier(a), selectionTier(b)
	if at != bt {
		return at < bt
	}
	return a.PerformanceScore > b.PerformanceScore
}

// selectionTier puts discrete non-CPU devices ahead of everything else.
func selectionTier(d types.Device) int {
	if d.Type != types.BackendCPU && d.IsDiscrete {
		return 0
	}
	return 1
}
