package entries

import "github.com/zenodo/rdm-migrator/lib/cdc"

// Locations turns legacy `{lat, lon, place, description}` entries into GeoJSON point features.
func Locations(legacy map[string]any) map[string]any {
	var features []any
	for _, entry := range objects(legacy, "locations") {
		feature := map[string]any{
			"place":       str(entry, "place"),
			"description": str(entry, "description"),
		}

		lat, hasLat := cdc.Float64(entry["lat"])
		lon, hasLon := cdc.Float64(entry["lon"])
		if hasLat && hasLon {
			feature["geometry"] = map[string]any{
				"type":        "Point",
				"coordinates": []any{lon, lat},
			}
		}

		if compacted := compactMap(feature); compacted != nil {
			features = append(features, compacted)
		}
	}

	if len(features) == 0 {
		return nil
	}
	return map[string]any{"features": features}
}
