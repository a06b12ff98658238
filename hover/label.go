package hover

import "github.com/echoflaresat/globeview/catalog"

// Label is the text of the tooltip for one city.
type Label struct {
	Country    string `json:"country"`
	Capital    string `json:"capital"`
	Population string `json:"population"`
}

func LabelFor(r catalog.GeoRecord) Label {
	return Label{
		Country:    r.Country,
		Capital:    r.Capital,
		Population: r.PopulationLabel(),
	}
}

// Lines returns the label as display lines.
func (l Label) Lines() []string {
	return []string{
		"Country: " + l.Country,
		"Capital: " + l.Capital,
		"Population (thousands): " + l.Population,
	}
}
