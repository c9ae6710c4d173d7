package cafs

import (
	"sort"
	"strconv"

	"gopkg.in/yaml.v2"
)

// Link describes a named, sized, content-addressed child
type Link struct {
	Name   string `json:"name" yaml:"name"`
	ID     Key    `json:"id" yaml:"id"`
	IsFile bool   `json:"isFile,omitempty" yaml:"isFile,omitempty"`
	Size   uint64 `json:"size" yaml:"size"`
	_      struct{}
}

// MakeLink builds a link from the result of a put
func MakeLink(name string, res PutRes) Link {
	return Link{Name: name, ID: res.Key, IsFile: res.IsFile, Size: res.Size}
}

// Links is a table of links, indexed by name. Names are unique within a table.
type Links map[string]Link

// Add a link to the table, replacing any link with the same name
func (l Links) Add(link Link) Links {
	l[link.Name] = link
	return l
}

// Get a link by name
func (l Links) Get(name string) (Link, bool) {
	link, ok := l[name]
	return link, ok
}

// Names returns the names in the table, sorted
func (l Links) Names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sorted returns all links, sorted by name
func (l Links) Sorted() []Link {
	names := l.Names()
	sorted := make([]Link, 0, len(names))
	for _, name := range names {
		sorted = append(sorted, l[name])
	}
	return sorted
}

// Copy the table
func (l Links) Copy() Links {
	c := make(Links, len(l))
	for k, v := range l {
		c[k] = v
	}
	return c
}

// CumulativeSize sums up the sizes of all linked children
func (l Links) CumulativeSize() uint64 {
	var size uint64
	for _, link := range l {
		size += link.Size
	}
	return size
}

// linksBlock is the persisted form of a link table or a linked list.
//
// Entries are always sorted, so that the encoding and thus the block key
// do not depend on insertion order.
type linksBlock struct {
	Links []Link `yaml:"links"`
}

func encodeLinks(links []Link) ([]byte, error) {
	if links == nil {
		links = []Link{}
	}
	return yaml.Marshal(linksBlock{Links: links})
}

func decodeLinks(data []byte) ([]Link, error) {
	var block linksBlock
	if err := yaml.UnmarshalStrict(data, &block); err != nil {
		return nil, ErrBadLinks.Wrap(err)
	}
	return block.Links, nil
}

// sortByIndex orders links named after their position in a list: "0", "1", ...
func sortByIndex(links []Link) {
	sort.SliceStable(links, func(i, j int) bool {
		a, errA := strconv.Atoi(links[i].Name)
		b, errB := strconv.Atoi(links[j].Name)
		if errA != nil || errB != nil {
			return links[i].Name < links[j].Name
		}
		return a < b
	})
}
