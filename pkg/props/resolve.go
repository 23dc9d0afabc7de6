package props

// MergeVisible combines the published and owner views of one path:
// published entries are inserted first, then owner entries overwrite on
// name conflict. The owner's own value always wins over a published
// one. The result is sorted by name.
func MergeVisible(published, owned []Property) []Property {
	merged := make(map[string]Value, len(published)+len(owned))
	for _, prop := range published {
		merged[prop.Name] = prop.Value
	}
	for _, prop := range owned {
		merged[prop.Name] = prop.Value
	}

	result := make([]Property, 0, len(merged))
	for name, value := range merged {
		result = append(result, Property{Name: name, Value: value})
	}
	sortByName(result)
	return result
}
