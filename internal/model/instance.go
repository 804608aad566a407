package model

import (
	"slices"
	"strings"
)

const (
	// NoLink is the gold value meaning "labelled, no correct link exists".
	NoLink = "none"

	// OtherMarker is the generic selection submitted with a free-text link.
	OtherMarker = "other"
)

// Instance is one entity mention within an article.
//
// Fields are declared in key order so the serialized form has sorted keys,
// which keeps the shared dataset file diffable by hand.
type Instance struct {
	// ID is unique within the dataset and never reused after deletion.
	ID int `json:"id"`

	// Links holds the gold annotation: empty means not labelled yet,
	// ["none"] means no correct link, otherwise the accepted link URIs.
	Links []string `json:"links"`

	// NEString is the mention text.
	NEString string `json:"ne_string"`

	// NEType is the entity category from NER; nil for manual entries.
	NEType *string `json:"ne_type"`

	// URL identifies the source article.
	URL string `json:"url"`
}

// Labeled reports whether the instance carries any gold value.
func (i Instance) Labeled() bool {
	return len(i.Links) > 0
}

// ExpectsNoLink reports whether the gold value is the "none" sentinel.
func (i Instance) ExpectsNoLink() bool {
	return len(i.Links) == 1 && i.Links[0] == NoLink
}

// AcceptsLink reports whether link is one of the accepted gold links.
func (i Instance) AcceptsLink(link string) bool {
	if i.ExpectsNoLink() {
		return false
	}
	return slices.Contains(i.Links, link)
}

// GoldValue renders the gold links as a single field for reports.
func (i Instance) GoldValue() string {
	return strings.Join(i.Links, "|")
}

// Dataset is a named, ordered collection of instances.
type Dataset struct {
	// Instances is the ordered sequence; mentions of one article stay contiguous.
	Instances []Instance `json:"instances"`

	// NextID is the high-water mark for id assignment. It only grows, so
	// ids freed by deletion are not handed out again.
	NextID int `json:"next_id,omitempty"`
}

// Len returns the number of instances.
func (d *Dataset) Len() int {
	return len(d.Instances)
}

// NextAssignableID returns the id the next created instance receives:
// one past the largest id ever seen by this dataset. Ids start at 1.
func (d *Dataset) NextAssignableID() int {
	next := max(d.NextID, 1)
	for _, inst := range d.Instances {
		if inst.ID+1 > next {
			next = inst.ID + 1
		}
	}
	return next
}

// Append adds an instance with a fresh id and advances the high-water mark.
// It returns the assigned id.
func (d *Dataset) Append(inst Instance) int {
	inst.ID = d.NextAssignableID()
	if inst.Links == nil {
		inst.Links = []string{}
	}
	d.Instances = append(d.Instances, inst)
	d.NextID = inst.ID + 1
	return inst.ID
}

// IndexOfID returns the position of the instance with the given id, or -1.
func (d *Dataset) IndexOfID(id int) int {
	return slices.IndexFunc(d.Instances, func(inst Instance) bool {
		return inst.ID == id
	})
}

// HasURL reports whether any instance belongs to url.
func (d *Dataset) HasURL(url string) bool {
	return slices.ContainsFunc(d.Instances, func(inst Instance) bool {
		return inst.URL == url
	})
}

// Normalize replaces nil link slices with empty ones so they serialize as [].
func (d *Dataset) Normalize() {
	if d.Instances == nil {
		d.Instances = []Instance{}
	}
	for i := range d.Instances {
		if d.Instances[i].Links == nil {
			d.Instances[i].Links = []string{}
		}
	}
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	c := &Dataset{
		Instances: make([]Instance, len(d.Instances)),
		NextID:    d.NextID,
	}
	for i, inst := range d.Instances {
		inst.Links = slices.Clone(inst.Links)
		if inst.NEType != nil {
			t := *inst.NEType
			inst.NEType = &t
		}
		c.Instances[i] = inst
	}
	return c
}

// StringPtr returns a pointer to s, or nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
