package hexo

// ConvertInstances returns a copy of values in which every Instance whose
// resource type satisfies known is replaced by its resource URI.
func ConvertInstances(values map[string]interface{}, known func(name string) bool) map[string]interface{} {
	if values == nil {
		return nil
	}

	out := make(map[string]interface{}, len(values))

	for key, value := range values {
		inst, ok := value.(*Instance)
		if ok && inst != nil && inst.accessor != nil && known(inst.accessor.Name()) {
			out[key] = inst.ResourceURI()

			continue
		}

		out[key] = value
	}

	return out
}
