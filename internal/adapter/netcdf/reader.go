package netcdf

import (
	"fmt"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/couchcryptid/climate-data-etl/internal/domain"
	"github.com/ctessum/sparse"
)

// ReadAnnual loads an exported annual grid back from a NetCDF file. Used by
// the validate command and the round-trip tests.
func ReadAnnual(path string) (domain.AnnualGrid, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return domain.AnnualGrid{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer nc.Close()

	attrs := nc.Attributes()
	meta := domain.Metadata{}
	if meta.Variable, err = attrString(attrs, "variable"); err != nil {
		return domain.AnnualGrid{}, err
	}
	if meta.Aggregation, err = attrString(attrs, "aggregation"); err != nil {
		return domain.AnnualGrid{}, err
	}
	if meta.Simulation, err = attrString(attrs, "simulation"); err != nil {
		return domain.AnnualGrid{}, err
	}
	if meta.WarmingLevel, err = attrFloat(attrs, "warming_level"); err != nil {
		return domain.AnnualGrid{}, err
	}
	if meta.CenteredYear, err = attrInt(attrs, "centered_year"); err != nil {
		return domain.AnnualGrid{}, err
	}
	created, err := attrString(attrs, "created_at")
	if err != nil {
		return domain.AnnualGrid{}, err
	}
	if meta.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return domain.AnnualGrid{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}

	yearsRaw, err := varValues(nc, dimYear)
	if err != nil {
		return domain.AnnualGrid{}, err
	}
	years32, ok := yearsRaw.([]int32)
	if !ok {
		return domain.AnnualGrid{}, fmt.Errorf("%s: unexpected type %T", dimYear, yearsRaw)
	}
	years := make([]int, len(years32))
	for i, y := range years32 {
		years[i] = int(y)
	}

	lats, err := floatAxis(nc, dimLat)
	if err != nil {
		return domain.AnnualGrid{}, err
	}
	lons, err := floatAxis(nc, dimLon)
	if err != nil {
		return domain.AnnualGrid{}, err
	}

	raw, err := varValues(nc, domain.VariableSlug(meta.Variable))
	if err != nil {
		return domain.AnnualGrid{}, err
	}
	nested, ok := raw.([][][]float64)
	if !ok {
		return domain.AnnualGrid{}, fmt.Errorf("%s: unexpected type %T", domain.VariableSlug(meta.Variable), raw)
	}
	if len(nested) != len(years) {
		return domain.AnnualGrid{}, fmt.Errorf("data has %d year planes for %d years", len(nested), len(years))
	}

	values := sparse.ZerosDense(len(years), len(lats), len(lons))
	for yi := range nested {
		for la := range nested[yi] {
			for lo, v := range nested[yi][la] {
				values.Set(v, yi, la, lo)
			}
		}
	}

	return domain.AnnualGrid{
		Years:  years,
		Lats:   lats,
		Lons:   lons,
		Values: values,
		Meta:   meta,
	}, nil
}

func varValues(nc api.Group, name string) (interface{}, error) {
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	v, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("variable %s values: %w", name, err)
	}
	return v, nil
}

func floatAxis(nc api.Group, name string) ([]float64, error) {
	raw, err := varValues(nc, name)
	if err != nil {
		return nil, err
	}
	vals, ok := raw.([]float64)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected type %T", name, raw)
	}
	return vals, nil
}

// Attribute accessors tolerant of scalar vs single-element encodings.

func attrString(m api.AttributeMap, key string) (string, error) {
	v, has := m.Get(key)
	if !has {
		return "", fmt.Errorf("missing global attribute %q", key)
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case []string:
		if len(x) == 1 {
			return x[0], nil
		}
	}
	return "", fmt.Errorf("global attribute %q: unexpected type %T", key, v)
}

func attrFloat(m api.AttributeMap, key string) (float64, error) {
	v, has := m.Get(key)
	if !has {
		return 0, fmt.Errorf("missing global attribute %q", key)
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case []float64:
		if len(x) == 1 {
			return x[0], nil
		}
	case float32:
		return float64(x), nil
	case []float32:
		if len(x) == 1 {
			return float64(x[0]), nil
		}
	}
	return 0, fmt.Errorf("global attribute %q: unexpected type %T", key, v)
}

func attrInt(m api.AttributeMap, key string) (int, error) {
	v, has := m.Get(key)
	if !has {
		return 0, fmt.Errorf("missing global attribute %q", key)
	}
	switch x := v.(type) {
	case int32:
		return int(x), nil
	case []int32:
		if len(x) == 1 {
			return int(x[0]), nil
		}
	case int64:
		return int(x), nil
	case []int64:
		if len(x) == 1 {
			return int(x[0]), nil
		}
	}
	return 0, fmt.Errorf("global attribute %q: unexpected type %T", key, v)
}
