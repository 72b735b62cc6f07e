package searchcore

import (
	"fmt"
	"time"

	"github.com/arenahq/searchcore/internal/store"
)

// RecordKind discriminates the item union.
type RecordKind string

// Record kinds.
const (
	KindUser  RecordKind = "user"
	KindVideo RecordKind = "video"
	KindEvent RecordKind = "event"
)

// User is the display snapshot of a user record.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Video is the display snapshot of a video record.
type Video struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// Event is the display snapshot of an event record.
type Event struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Location string    `json:"location"`
	Sport    string    `json:"sport"`
	Status   string    `json:"status"`
	StartsAt time.Time `json:"startsAt"`
}

// Item is a tagged union over the three record kinds. It is a read-only
// snapshot copied from the store at query time; exactly one payload is set.
type Item struct {
	Kind  RecordKind `json:"kind"`
	User  *User      `json:"user,omitempty"`
	Video *Video     `json:"video,omitempty"`
	Event *Event     `json:"event,omitempty"`
}

// ID returns the underlying record's identifier.
func (i Item) ID() string {
	switch i.Kind {
	case KindUser:
		return i.User.ID
	case KindVideo:
		return i.Video.ID
	case KindEvent:
		return i.Event.ID
	default:
		return ""
	}
}

// DisplayText returns the primary text shown for the item.
func (i Item) DisplayText() string {
	switch i.Kind {
	case KindUser:
		return i.User.DisplayName
	case KindVideo:
		return i.Video.Title
	case KindEvent:
		return i.Event.Title
	default:
		return ""
	}
}

// CreatedAt returns the recency timestamp used as a ranking tiebreak.
func (i Item) CreatedAt() time.Time {
	switch i.Kind {
	case KindUser:
		return i.User.CreatedAt
	case KindVideo:
		return i.Video.UploadedAt
	case KindEvent:
		return i.Event.StartsAt
	default:
		return time.Time{}
	}
}

// searchFields returns the display fields matched against the query term,
// primary field first.
func (i Item) searchFields() []string {
	switch i.Kind {
	case KindUser:
		return []string{i.User.DisplayName, i.User.Email}
	case KindVideo:
		return []string{i.Video.Title, i.Video.Description}
	case KindEvent:
		return []string{i.Event.Title, i.Event.Location, i.Event.Sport}
	default:
		return nil
	}
}

// facetValues returns the facet dimensions the item contributes to.
func (i Item) facetValues() map[string]string {
	switch i.Kind {
	case KindUser:
		return map[string]string{"role": i.User.Role, "status": i.User.Status}
	case KindVideo:
		return map[string]string{"category": i.Video.Category, "status": i.Video.Status}
	case KindEvent:
		return map[string]string{"sport": i.Event.Sport, "status": i.Event.Status, "location": i.Event.Location}
	default:
		return nil
	}
}

// collectionFor maps a concrete search type to its store collection name.
func collectionFor(t SearchType) string { return string(t) }

// orderField names the recency field the store orders a collection by.
func orderField(t SearchType) string {
	switch t {
	case TypeVideos:
		return "uploadedAt"
	case TypeEvents:
		return "startsAt"
	default:
		return "createdAt"
	}
}

// kindFor maps a concrete search type to the record kind it yields.
func kindFor(t SearchType) RecordKind {
	switch t {
	case TypeUsers:
		return KindUser
	case TypeVideos:
		return KindVideo
	default:
		return KindEvent
	}
}

// itemFromRaw builds a typed item from an untyped store record, rejecting
// records without an id and defaulting any other missing field. Unknown
// fields are dropped at this boundary.
func itemFromRaw(kind RecordKind, rec store.RawRecord) (Item, error) {
	id := rec.String("id")
	if id == "" {
		return Item{}, fmt.Errorf("record without id (kind %s)", kind)
	}

	switch kind {
	case KindUser:
		return Item{Kind: KindUser, User: &User{
			ID:          id,
			DisplayName: rec.String("displayName"),
			Email:       rec.String("email"),
			Role:        rec.String("role"),
			Status:      rec.String("status"),
			CreatedAt:   unixTime(rec, "createdAt"),
		}}, nil
	case KindVideo:
		return Item{Kind: KindVideo, Video: &Video{
			ID:          id,
			Title:       rec.String("title"),
			Description: rec.String("description"),
			Category:    rec.String("category"),
			Status:      rec.String("status"),
			UploadedAt:  unixTime(rec, "uploadedAt"),
		}}, nil
	case KindEvent:
		return Item{Kind: KindEvent, Event: &Event{
			ID:       id,
			Title:    rec.String("title"),
			Location: rec.String("location"),
			Sport:    rec.String("sport"),
			Status:   rec.String("status"),
			StartsAt: unixTime(rec, "startsAt"),
		}}, nil
	default:
		return Item{}, fmt.Errorf("unknown record kind %q", kind)
	}
}

func unixTime(rec store.RawRecord, field string) time.Time {
	sec := rec.Int64(field)
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
