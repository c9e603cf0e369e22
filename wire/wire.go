// Package wire serializes a Repository to and from a single
// self-contained byte stream: the head revision, the entity table,
// and both identifier sequences, framed as nested TLV records in the
// style of the teacher's own wire format (chotki.go's Record('Y', ...)
// packets), built directly on the external toytlv codec the teacher
// imports rather than reinventing one.
package wire

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/learn-decentralized-systems/toytlv"
	"github.com/pkg/errors"

	st "github.com/ashigeru/smalltable"
	"github.com/ashigeru/smalltable/repo"
)

// Top-level record tags, per SPEC_FULL.md §6.
const (
	tagRefSeq    = 'R'
	tagEntitySeq = 'E'
	tagRevision  = 'V'
	tagEntity    = 'T'

	tagBinding     = 'b'
	tagEntityRef   = 'e'
	tagEntitySelf  = 's'
	tagProperty    = 'p'
	valueInt64     = 'I'
	valueString    = 'S'
	valueReference = 'R'
)

var errMalformed = errors.New("smalltable/wire: malformed stream")

func u64Bytes(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func u64FromBytes(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, errMalformed
	}
	return binary.BigEndian.Uint64(b), nil
}

// Dump writes the repository's entire persisted state to w: the two
// sequence high-water marks, the head revision, and every entity ever
// stored.
func Dump(w io.Writer, r *repo.Repository) error {
	refSeq, idSeq := r.Sequences()
	head := r.Head()
	entities := r.EntitiesSnapshot()

	var buf bytes.Buffer
	buf.Write(toytlv.Record(tagRefSeq, u64Bytes(refSeq)))
	buf.Write(toytlv.Record(tagEntitySeq, u64Bytes(idSeq)))
	buf.Write(toytlv.Record(tagRevision, encodeRevision(head)))
	for id, e := range entities {
		buf.Write(toytlv.Record(tagEntity, encodeEntity(id, e)))
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Restore reads a stream previously produced by Dump and builds a
// fresh Repository from it.
func Restore(r io.Reader, opts repo.Options) (*repo.Repository, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "smalltable/wire: reading stream")
	}

	var refSeq, idSeq uint64
	var head st.Revision
	haveHead := false
	entities := make(map[st.EntityId]st.Entity)

	rest := data
	for len(rest) > 0 {
		lit, hlen, blen := toytlv.ProbeHeader(rest)
		if hlen+blen > len(rest) {
			return nil, errMalformed
		}
		body := rest[hlen : hlen+blen]
		rest = rest[hlen+blen:]

		switch lit {
		case tagRefSeq:
			refSeq, err = u64FromBytes(body)
			if err != nil {
				return nil, err
			}
		case tagEntitySeq:
			idSeq, err = u64FromBytes(body)
			if err != nil {
				return nil, err
			}
		case tagRevision:
			head, err = decodeRevision(body)
			if err != nil {
				return nil, err
			}
			haveHead = true
		case tagEntity:
			id, e, err := decodeEntity(body)
			if err != nil {
				return nil, err
			}
			entities[id] = e
		default:
			return nil, errMalformed
		}
	}
	if !haveHead {
		head = st.Empty()
	}
	return repo.Restore(opts, head, entities, refSeq, idSeq), nil
}

func encodeRevision(rev st.Revision) []byte {
	var recs [][]byte
	for name, ref := range rev.Bindings() {
		body := toytlv.Concat(
			toytlv.Record('n', []byte(name)),
			toytlv.Record('r', ref.Bytes()),
		)
		recs = append(recs, toytlv.Record(tagBinding, body))
	}
	for ref, id := range rev.Entities() {
		body := toytlv.Concat(
			toytlv.Record('r', ref.Bytes()),
			toytlv.Record('i', id.Bytes()),
		)
		recs = append(recs, toytlv.Record(tagEntityRef, body))
	}
	return toytlv.Concat(recs...)
}

func decodeRevision(data []byte) (st.Revision, error) {
	bindings := make(map[string]st.Reference)
	entities := make(map[st.Reference]st.EntityId)

	rest := data
	for len(rest) > 0 {
		lit, hlen, blen := toytlv.ProbeHeader(rest)
		if hlen+blen > len(rest) {
			return st.Revision{}, errMalformed
		}
		body := rest[hlen : hlen+blen]
		rest = rest[hlen+blen:]

		switch lit {
		case tagBinding:
			name, ref, err := decodeBinding(body)
			if err != nil {
				return st.Revision{}, err
			}
			bindings[name] = ref
		case tagEntityRef:
			ref, id, err := decodeEntityRef(body)
			if err != nil {
				return st.Revision{}, err
			}
			entities[ref] = id
		default:
			return st.Revision{}, errMalformed
		}
	}
	return st.NewRevision(bindings, entities), nil
}

func decodeBinding(data []byte) (string, st.Reference, error) {
	nameBytes, rest := toytlv.Take('n', data)
	if nameBytes == nil {
		return "", 0, errMalformed
	}
	refBytes, _ := toytlv.Take('r', rest)
	if len(refBytes) != 8 {
		return "", 0, errMalformed
	}
	return string(nameBytes), st.ReferenceFromBytes(refBytes), nil
}

func decodeEntityRef(data []byte) (st.Reference, st.EntityId, error) {
	refBytes, rest := toytlv.Take('r', data)
	if len(refBytes) != 8 {
		return 0, 0, errMalformed
	}
	idBytes, _ := toytlv.Take('i', rest)
	if len(idBytes) != 8 {
		return 0, 0, errMalformed
	}
	return st.ReferenceFromBytes(refBytes), st.EntityIdFromBytes(idBytes), nil
}

func encodeEntity(id st.EntityId, e st.Entity) []byte {
	var recs [][]byte
	recs = append(recs, toytlv.Record(tagEntitySelf, e.Self().Bytes()))
	recs = append(recs, toytlv.Record('d', id.Bytes()))
	for name, v := range e.Properties() {
		recs = append(recs, toytlv.Record(tagProperty, encodeValue(name, v)))
	}
	return toytlv.Concat(recs...)
}

func decodeEntity(data []byte) (st.EntityId, st.Entity, error) {
	var self st.Reference
	var id st.EntityId
	b := st.NewBuilder(0)

	rest := data
	for len(rest) > 0 {
		lit, hlen, blen := toytlv.ProbeHeader(rest)
		if hlen+blen > len(rest) {
			return 0, st.Entity{}, errMalformed
		}
		body := rest[hlen : hlen+blen]
		rest = rest[hlen+blen:]

		switch lit {
		case tagEntitySelf:
			if len(body) != 8 {
				return 0, st.Entity{}, errMalformed
			}
			self = st.ReferenceFromBytes(body)
			b = st.NewBuilder(self)
		case 'd':
			if len(body) != 8 {
				return 0, st.Entity{}, errMalformed
			}
			id = st.EntityIdFromBytes(body)
		case tagProperty:
			name, v, err := decodeValue(body)
			if err != nil {
				return 0, st.Entity{}, err
			}
			b.Add(name, v)
		default:
			return 0, st.Entity{}, errMalformed
		}
	}
	entity, err := b.ToEntity()
	if err != nil {
		return 0, st.Entity{}, err
	}
	return id, entity, nil
}

func encodeValue(name string, v st.Value) []byte {
	nameRec := toytlv.Record('n', []byte(name))
	var valRec []byte
	switch v.Kind() {
	case st.KindInt64:
		iv, _ := v.Int64()
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(iv))
		valRec = toytlv.Record(valueInt64, b[:])
	case st.KindString:
		sv, _ := v.String2()
		valRec = toytlv.Record(valueString, []byte(sv))
	case st.KindReference:
		rv, _ := v.Reference()
		valRec = toytlv.Record(valueReference, rv.Bytes())
	}
	return toytlv.Concat(nameRec, valRec)
}

func decodeValue(data []byte) (string, st.Value, error) {
	nameBytes, rest := toytlv.Take('n', data)
	if nameBytes == nil {
		return "", st.Value{}, errMalformed
	}
	lit, hlen, blen := toytlv.ProbeHeader(rest)
	if hlen+blen > len(rest) {
		return "", st.Value{}, errMalformed
	}
	body := rest[hlen : hlen+blen]

	switch lit {
	case valueInt64:
		n, err := u64FromBytes(body)
		if err != nil {
			return "", st.Value{}, err
		}
		return string(nameBytes), st.Int64Value(int64(n)), nil
	case valueString:
		return string(nameBytes), st.StringValue(string(body)), nil
	case valueReference:
		if len(body) != 8 {
			return "", st.Value{}, errMalformed
		}
		return string(nameBytes), st.RefValue(st.ReferenceFromBytes(body)), nil
	default:
		return "", st.Value{}, errMalformed
	}
}
