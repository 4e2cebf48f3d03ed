package trello

// Card is a Trello card as returned by the REST API and board exports.
type Card struct {
	ID               string            `json:"id"`
	IDShort          int               `json:"idShort"`
	Name             string            `json:"name"`
	Desc             string            `json:"desc"`
	Closed           bool              `json:"closed"`
	IDList           string            `json:"idList"`
	IDMembers        []string          `json:"idMembers"`
	Labels           []Label           `json:"labels"`
	ShortURL         string            `json:"shortUrl"`
	CustomFieldItems []CustomFieldItem `json:"customFieldItems,omitempty"`
}

// LabelNames returns the card's label names, lower-cased.
func (c Card) LabelNames() []string {
	names := make([]string, 0, len(c.Labels))
	for _, l := range c.Labels {
		names = append(names, lower(l.Name))
	}
	return names
}

// HasLabel reports whether the card carries the named label, ignoring case.
func (c Card) HasLabel(name string) bool {
	want := lower(name)
	for _, l := range c.LabelNames() {
		if l == want {
			return true
		}
	}
	return false
}

// Label is a coloured card label.
type Label struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// List is a board column.
type List struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Closed bool   `json:"closed"`
}

// Member is a board member.
type Member struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Initials string `json:"initials"`
}

// CustomField is a board-level custom field definition.
type CustomField struct {
	ID      string              `json:"id"`
	Name    string              `json:"name"`
	Type    string              `json:"type"`
	Options []CustomFieldOption `json:"options"`
}

// CustomFieldOption is one choice of a list-typed custom field.
type CustomFieldOption struct {
	ID    string            `json:"id"`
	Value map[string]string `json:"value"`
}

// CustomFieldItem is a custom field value set on a card.
type CustomFieldItem struct {
	ID            string            `json:"id"`
	IDCustomField string            `json:"idCustomField"`
	IDValue       string            `json:"idValue"`
	Value         map[string]string `json:"value"`
}

// Checklist is a named list of check items on a card.
type Checklist struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Pos        float64     `json:"pos"`
	CheckItems []CheckItem `json:"checkItems"`
}

// CheckItem is one checklist entry. State is "complete" or "incomplete".
type CheckItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	State string  `json:"state"`
	Pos   float64 `json:"pos"`
}

// Complete reports whether the item is ticked.
func (i CheckItem) Complete() bool {
	return i.State == "complete"
}

// Action is an entry of a card's activity feed. Comments carry their text
// in Data.Text.
type Action struct {
	ID              string     `json:"id"`
	Type            string     `json:"type"`
	Date            string     `json:"date"`
	IDMemberCreator string     `json:"idMemberCreator"`
	MemberCreator   Member     `json:"memberCreator"`
	Data            ActionData `json:"data"`
}

// ActionData is the payload of an Action.
type ActionData struct {
	Text string `json:"text"`
}

// Attachment is a file uploaded to a card or a link attached to it.
type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Bytes    int64  `json:"bytes"`
	IsUpload bool   `json:"isUpload"`
}

// Board is a board JSON export.
type Board struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Cards        []Card        `json:"cards"`
	Lists        []List        `json:"lists"`
	Members      []Member      `json:"members"`
	CustomFields []CustomField `json:"customFields"`
}
