package alert

import (
	"strings"

	"github.com/linnemanlabs/go-core/xerrors"
)

// ErrTypeNotFound is returned when an alert-type code is not registered.
var ErrTypeNotFound = xerrors.New("alert type not found")

// Fixed codes the engine itself creates alerts for.
const (
	TypeHubOffline    = "hub_offline"
	TypeSensorOffline = "sensor_offline"
)

// Catalog resolves alert-type codes to their metadata. It is built once
// at startup and read-only afterwards, so lookups need no locking.
type Catalog struct {
	types map[string]Type
}

// NewCatalog builds a catalog from the given types. Codes are unique;
// a later type with the same code replaces an earlier one, which lets
// tenant-defined types shadow builtins.
func NewCatalog(types ...Type) *Catalog {
	m := make(map[string]Type, len(types))
	for _, t := range types {
		m[strings.ToLower(t.Code)] = t
	}
	return &Catalog{types: m}
}

// Resolve looks up a type by code, case-insensitively.
func (c *Catalog) Resolve(code string) (Type, error) {
	t, ok := c.types[strings.ToLower(code)]
	if !ok {
		return Type{}, ErrTypeNotFound
	}
	return t, nil
}

// Types returns all registered types, for seeding stores.
func (c *Catalog) Types() []Type {
	out := make([]Type, 0, len(c.types))
	for _, t := range c.types {
		out = append(out, t)
	}
	return out
}

// BuiltinTypes is the seed set of global alert types.
func BuiltinTypes() []Type {
	return []Type{
		{Code: "mold_risk", Name: "Mold risk", DefaultSeverity: SeverityWarning, IsGlobal: true, IconName: "humidity"},
		{Code: "frost_warning", Name: "Frost warning", DefaultSeverity: SeverityWarning, IsGlobal: true, IconName: "thermometer-low"},
		{Code: "heat_warning", Name: "Heat warning", DefaultSeverity: SeverityWarning, IsGlobal: true, IconName: "thermometer-high"},
		{Code: "battery_low", Name: "Battery low", DefaultSeverity: SeverityInfo, IsGlobal: true, IconName: "battery"},
		{Code: TypeSensorOffline, Name: "Sensor offline", DefaultSeverity: SeverityCritical, IsGlobal: true, IsDedup: true, IconName: "sensor-off"},
		{Code: TypeHubOffline, Name: "Hub offline", DefaultSeverity: SeverityCritical, IsGlobal: true, IsDedup: true, IconName: "hub-off"},
		{Code: "water_leak", Name: "Water leak", DefaultSeverity: SeverityCritical, IsGlobal: true, IsContact: true, IconName: "water"},
		{Code: "door_open", Name: "Door open", DefaultSeverity: SeverityInfo, IsGlobal: true, IsContact: true, IconName: "door"},
	}
}
