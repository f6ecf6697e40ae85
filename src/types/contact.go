package types

type ContactKind string

const (
	CONTACT_STRUCTURED ContactKind = "structured"
	CONTACT_SNAPSHOT   ContactKind = "snapshot"
)

type Person struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Contact holds either a structured participant list or a single customer
// snapshot taken when the booking was made. Kind says which one is set.
type Contact struct {
	Kind         ContactKind `json:"kind"`
	Participants []Person    `json:"participants,omitempty"`
	Customer     *Person     `json:"customer,omitempty"`
}

func StructuredContact(participants []Person) Contact {
	return Contact{Kind: CONTACT_STRUCTURED, Participants: participants}
}

func SnapshotContact(p Person) Contact {
	return Contact{Kind: CONTACT_SNAPSHOT, Customer: &p}
}

// Primary is the person notifications are addressed to.
func (c Contact) Primary() Person {
	switch c.Kind {
	case CONTACT_STRUCTURED:
		if len(c.Participants) > 0 {
			return c.Participants[0]
		}
	case CONTACT_SNAPSHOT:
		if c.Customer != nil {
			return *c.Customer
		}
	}
	return Person{}
}
