package family

import (
	"errors"
	"fmt"

	"familytree/internal/model"
)

var (
	ErrMemberNotFound = errors.New("family member not found")
	ErrDuplicateID    = errors.New("family member id already exists")
	ErrMissingID      = errors.New("family member id is required")
	ErrInvalidCouple  = errors.New("invalid couple")
)

// The mutations below never modify the slice they are given. Each returns a
// new collection in which spouse pointers are symmetric for every pair the
// mutation touched.

// Find returns the member with the given id.
func Find(members []model.Member, id string) (model.Member, bool) {
	if i := indexOf(members, id); i >= 0 {
		return members[i], true
	}
	return model.Member{}, false
}

// Add appends a member. When the member names a spouse, the spouse is
// linked back and released from any previous partner; the existing member
// becomes the primary of the new couple.
func Add(members []model.Member, m model.Member) ([]model.Member, error) {
	if m.ID == "" {
		return nil, ErrMissingID
	}
	if indexOf(members, m.ID) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, m.ID)
	}

	m.Primary = false
	if m.SpouseID == m.ID {
		m.SpouseID = ""
	}

	out := clone(members)
	if m.SpouseID == "" {
		return append(out, m), nil
	}

	j := indexOf(out, m.SpouseID)
	if j < 0 {
		return nil, fmt.Errorf("spouse %s: %w", m.SpouseID, ErrMemberNotFound)
	}
	release(out, j)

	out = append(out, m)
	link(out, j, len(out)-1)
	return out, nil
}

// AddCouple appends two new members married to each other. The first
// member is the primary of the pair.
func AddCouple(members []model.Member, a, b model.Member) ([]model.Member, error) {
	if a.ID == "" || b.ID == "" {
		return nil, ErrMissingID
	}
	if a.ID == b.ID {
		return nil, fmt.Errorf("%w: both members share id %s", ErrInvalidCouple, a.ID)
	}
	for _, id := range []string{a.ID, b.ID} {
		if indexOf(members, id) >= 0 {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
	}

	a.SpouseID, b.SpouseID = b.ID, a.ID
	a.Primary, b.Primary = true, false

	return append(clone(members), a, b), nil
}

// Update replaces a member in place, keeping its position. A changed
// spouseId unlinks the former partner and links the new one on both sides.
func Update(members []model.Member, m model.Member) ([]model.Member, error) {
	i := indexOf(members, m.ID)
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", m.ID, ErrMemberNotFound)
	}

	old := members[i]
	if m.SpouseID == m.ID {
		m.SpouseID = ""
	}
	m.Primary = old.Primary

	out := clone(members)

	if m.SpouseID == old.SpouseID {
		out[i] = m
		if j := indexOf(out, m.SpouseID); j >= 0 {
			if out[j].SpouseID != m.ID {
				release(out, j)
				out[i].SpouseID = m.SpouseID
			}
			link(out, i, j)
		}
		return out, nil
	}

	var j int
	if m.SpouseID != "" {
		j = indexOf(out, m.SpouseID)
		if j < 0 {
			return nil, fmt.Errorf("spouse %s: %w", m.SpouseID, ErrMemberNotFound)
		}
	}

	release(out, i)
	m.Primary = false
	out[i] = m

	if m.SpouseID == "" {
		return out, nil
	}

	release(out, j)
	out[i].SpouseID = m.SpouseID
	link(out, i, j)
	return out, nil
}

// Delete removes a member and clears every spouse pointer that referenced
// it. Children keep their parentId and are shown as orphans.
func Delete(members []model.Member, id string) ([]model.Member, error) {
	i := indexOf(members, id)
	if i < 0 {
		return nil, fmt.Errorf("%s: %w", id, ErrMemberNotFound)
	}

	out := make([]model.Member, 0, len(members)-1)
	out = append(out, members[:i]...)
	out = append(out, members[i+1:]...)

	for k := range out {
		if out[k].SpouseID == id {
			out[k].SpouseID = ""
			out[k].Primary = false
		}
	}
	return out, nil
}

func indexOf(members []model.Member, id string) int {
	if id == "" {
		return -1
	}
	for i, m := range members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func clone(members []model.Member) []model.Member {
	out := make([]model.Member, len(members), len(members)+2)
	copy(out, members)
	return out
}

// release detaches out[i] from its partner and from anyone still pointing
// at it.
func release(out []model.Member, i int) {
	id := out[i].ID
	for k := range out {
		if k != i && out[k].SpouseID == id {
			out[k].SpouseID = ""
			out[k].Primary = false
		}
	}
	out[i].SpouseID = ""
	out[i].Primary = false
}

// link marries out[i] and out[j]. An existing single primary flag is kept;
// otherwise the member earlier in the collection becomes primary.
func link(out []model.Member, i, j int) {
	out[i].SpouseID = out[j].ID
	out[j].SpouseID = out[i].ID

	if out[i].Primary != out[j].Primary {
		return
	}
	first, second := i, j
	if j < i {
		first, second = j, i
	}
	out[first].Primary = true
	out[second].Primary = false
}
