package props

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeVisible_OwnerOverridesPublished(t *testing.T) {
	published := []Property{
		{Name: "{urn:ietf:params:xml:ns:caldav}calendar-availability", Value: StringValue("published")},
	}
	owned := []Property{
		{Name: "{urn:ietf:params:xml:ns:caldav}calendar-availability", Value: StringValue("mine")},
	}

	merged := MergeVisible(published, owned)

	assert.Len(t, merged, 1)
	assert.Equal(t, "mine", merged[0].Value.Text(),
		"The requesting user's own value takes priority on conflict")
}

func TestMergeVisible_KeepsDisjointNames(t *testing.T) {
	published := []Property{
		{Name: "{urn:ietf:params:xml:ns:caldav}calendar-availability", Value: StringValue("9-17")},
	}
	owned := []Property{
		{Name: "{DAV:}displayname", Value: StringValue("Team")},
		{Name: "{http://apple.com/ns/ical/}calendar-color", Value: StringValue("#00FF00")},
	}

	merged := MergeVisible(published, owned)

	assert.Equal(t, []string{
		"{DAV:}displayname",
		"{http://apple.com/ns/ical/}calendar-color",
		"{urn:ietf:params:xml:ns:caldav}calendar-availability",
	}, propertyNames(merged), "Merged results are sorted by name")
}

func TestMergeVisible_Empty(t *testing.T) {
	assert.Empty(t, MergeVisible(nil, nil))
	assert.Len(t, MergeVisible([]Property{{Name: "{DAV:}displayname"}}, nil), 1)
	assert.Len(t, MergeVisible(nil, []Property{{Name: "{DAV:}displayname"}}), 1)
}

func propertyNames(props []Property) []string {
	names := make([]string, 0, len(props))
	for _, p := range props {
		names = append(names, p.Name)
	}
	return names
}
