package models

import "fmt"

// Room maps a remote resource id to a local room. Rooms come from the config
// file and never change at runtime.
type Room struct {
	ResourceID   int64  `yaml:"resource_id" json:"resource_id"`
	Name         string `yaml:"name" json:"name"`
	LocationHint string `yaml:"location_hint" json:"location_hint"`
}

// ICSLocation renders the LOCATION field used in calendar exports.
func (r Room) ICSLocation() string {
	if r.LocationHint == "" {
		return r.Name
	}
	return fmt.Sprintf("%s - %s", r.Name, r.LocationHint)
}
