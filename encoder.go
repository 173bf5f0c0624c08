package hxgrid

import (
	"fmt"
	"net/http"

	"github.com/pthm/hxgrid/lib/encoding"
)

// Encoder signs and encrypts grid state tokens.
type Encoder = encoding.Encoder

// NewEncoder creates an encoder with the given key.
func NewEncoder(key []byte) (*Encoder, error) {
	return encoding.NewEncoder(key)
}

// Encoder returns the registry's state token encoder.
func (reg *Registry) Encoder() *Encoder {
	return reg.encoder
}

// gridState travels in the StateParam token.
type gridState struct {
	Grid  string              `msgpack:"g"`
	Path  string              `msgpack:"p"`
	Scope map[string]string   `msgpack:"s,omitempty"`
	Query map[string][]string `msgpack:"q,omitempty"`
}

func (reg *Registry) stateToken(id string, sensitive bool, p Params, withQuery bool) (string, error) {
	st := gridState{Grid: id, Path: p.Path, Scope: p.Scope}
	if withQuery {
		st.Query = p.Query
	}
	return reg.encoder.Encode(st, sensitive)
}

func (reg *Registry) readState(r *http.Request, id string, sensitive bool) (gridState, error) {
	var st gridState
	if err := reg.encoder.Decode(r.URL.Query().Get(StateParam), sensitive, &st); err != nil {
		return st, err
	}
	if st.Grid != id {
		return st, fmt.Errorf("%w: state token of grid %q used for %q", ErrSignatureInvalid, st.Grid, id)
	}
	return st, nil
}

