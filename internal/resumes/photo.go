package resumes

import (
	"bytes"
	"encoding/json"
)

// PhotoState distinguishes the four meanings a photo field can carry on a
// save: leave the stored photo untouched, delete it, keep a stored
// reference, or replace it with a new binary payload.
type PhotoState int

const (
	// PhotoUnspecified means the field was absent: no change intended.
	PhotoUnspecified PhotoState = iota
	// PhotoRemoved means the field was explicitly null: delete the photo.
	PhotoRemoved
	// PhotoStored references an already-uploaded photo.
	PhotoStored
	// PhotoPending carries a new binary payload awaiting upload.
	PhotoPending
)

// Photo models a resume photo across its save lifecycle. The zero value is
// PhotoUnspecified, which is what an absent JSON field decodes to.
type Photo struct {
	State PhotoState `json:"-"`

	// Stored reference, set once the blob has been persisted.
	URL        string `json:"url,omitempty"`
	StorageKey string `json:"-"`

	// Pending payload and its metadata.
	Data         []byte `json:"data,omitempty"`
	Name         string `json:"name,omitempty"`
	Size         int64  `json:"size,omitempty"`
	MimeType     string `json:"mimeType,omitempty"`
	LastModified int64  `json:"lastModified,omitempty"`
}

// Surrogate is the cheap comparable stand-in for a photo. Binary payloads
// are never compared byte-for-byte; metadata decides equality.
type Surrogate struct {
	Name         string
	Size         int64
	MimeType     string
	LastModified int64
}

// Surrogate normalizes the photo for comparison. Stored photos compare by
// URL carried in Name; removed and unspecified photos map to the zero value.
func (p Photo) Surrogate() Surrogate {
	switch p.State {
	case PhotoStored:
		return Surrogate{Name: p.URL}
	case PhotoPending:
		return Surrogate{Name: p.Name, Size: p.Size, MimeType: p.MimeType, LastModified: p.LastModified}
	default:
		return Surrogate{}
	}
}

// UnmarshalJSON decodes the tri-state wire form: null means removal, an
// object with data means a pending upload, an object with only a url means a
// stored reference. Absent fields never reach this method and stay
// PhotoUnspecified.
func (p *Photo) UnmarshalJSON(raw []byte) error {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		*p = Photo{State: PhotoRemoved}
		return nil
	}

	type photoWire Photo
	var w photoWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return err
	}
	*p = Photo(w)
	if len(p.Data) > 0 {
		p.State = PhotoPending
		if p.Size == 0 {
			p.Size = int64(len(p.Data))
		}
	} else {
		p.State = PhotoStored
	}
	return nil
}

// MarshalJSON encodes the photo for responses: unspecified and removed
// photos serialize as null, stored photos as their reference, pending
// photos with payload and metadata.
func (p Photo) MarshalJSON() ([]byte, error) {
	switch p.State {
	case PhotoUnspecified, PhotoRemoved:
		return []byte("null"), nil
	default:
		type photoWire Photo
		return json.Marshal(photoWire(p))
	}
}
