package payload

// FieldConfig lists the field names retained or removed from a payload.
type FieldConfig struct {
	Include []string `json:"include,omitempty" yaml:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`
}

// IsZero reports whether the config leaves payloads untouched.
func (c FieldConfig) IsZero() bool {
	return len(c.Include) == 0 && len(c.Exclude) == 0
}

// Filter applies cfg to payload and returns a new record. Anything that is not
// a map[string]any (including nil) yields an empty record. The input is never
// modified.
func Filter(payload any, cfg FieldConfig) map[string]any {
	record, ok := payload.(map[string]any)
	if !ok || record == nil {
		return map[string]any{}
	}

	result := make(map[string]any, len(record))
	for key, value := range record {
		result[key] = value
	}

	if len(cfg.Include) > 0 {
		allowed := toSet(cfg.Include)
		for key := range result {
			if _, ok := allowed[key]; !ok {
				delete(result, key)
			}
		}
	}

	if len(cfg.Exclude) > 0 {
		for key := range toSet(cfg.Exclude) {
			delete(result, key)
		}
	}

	return result
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}
