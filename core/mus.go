package core

import (
	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for values stored in the embedded backend.
var (
	VectorMUS      mus.Serializer[[]float32]    = ord.NewSliceSer[float32](raw.Float32)
	EngagementsMUS mus.Serializer[Engagements]  = engagementsMUS{}
	ChunkMUS       mus.Serializer[Chunk]        = chunkMUS{}
	stringsMUS     mus.Serializer[[]string]     = ord.NewSliceSer[string](ord.String)
	engagementsPtr mus.Serializer[*Engagements] = ord.NewPtrSer[Engagements](engagementsMUS{})
)

// orNil keeps absent lists absent after a round trip.
func orNil[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}

type engagementsMUS struct{}

func (s engagementsMUS) Marshal(v Engagements, bs []byte) (n int) {
	n = stringsMUS.Marshal(v.Challenges, bs)
	n += stringsMUS.Marshal(v.Supports, bs[n:])
	n += ord.String.Marshal(v.Consistency, bs[n:])
	n += stringsMUS.Marshal(v.RelatedPositions, bs[n:])
	return
}

func (s engagementsMUS) Unmarshal(bs []byte) (v Engagements, n int, err error) {
	var n1 int
	v.Challenges, n, err = stringsMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Supports, n1, err = stringsMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Consistency, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.RelatedPositions, n1, err = stringsMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Challenges = orNil(v.Challenges)
	v.Supports = orNil(v.Supports)
	v.RelatedPositions = orNil(v.RelatedPositions)
	return
}

func (s engagementsMUS) Size(v Engagements) (size int) {
	size = stringsMUS.Size(v.Challenges)
	size += stringsMUS.Size(v.Supports)
	size += ord.String.Size(v.Consistency)
	return size + stringsMUS.Size(v.RelatedPositions)
}

func (s engagementsMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for _, skip := range []func([]byte) (int, error){
		stringsMUS.Skip, stringsMUS.Skip, ord.String.Skip, stringsMUS.Skip,
	} {
		n1, err = skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

// chunkMUS encodes Chunk fields in declaration order. CreatedAt keeps
// microsecond precision in UTC.
type chunkMUS struct{}

func (s chunkMUS) Marshal(v Chunk, bs []byte) (n int) {
	n = ord.String.Marshal(v.Author, bs)
	n += ord.String.Marshal(v.FigureID, bs[n:])
	n += ord.String.Marshal(v.PaperTitle, bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += VectorMUS.Marshal(v.Embedding, bs[n:])
	n += varint.Int.Marshal(v.ChunkIndex, bs[n:])
	n += ord.String.Marshal(v.Domain, bs[n:])
	n += ord.String.Marshal(v.SourceWork, bs[n:])
	n += ord.String.Marshal(v.Significance, bs[n:])
	n += ord.String.Marshal(v.PositionID, bs[n:])
	n += engagementsPtr.Marshal(v.Engagements, bs[n:])
	n += ord.String.Marshal(v.ContentHash, bs[n:])
	n += raw.TimeUnixMicroUTC.Marshal(v.CreatedAt, bs[n:])
	return
}

func (s chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	strs := []*string{&v.Author, &v.FigureID, &v.PaperTitle, &v.Content}
	var n1 int
	for _, dst := range strs {
		*dst, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	v.Embedding, n1, err = VectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Embedding = orNil(v.Embedding)
	v.ChunkIndex, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	for _, dst := range []*string{&v.Domain, &v.SourceWork, &v.Significance, &v.PositionID} {
		*dst, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	v.Engagements, n1, err = engagementsPtr.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ContentHash, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CreatedAt, n1, err = raw.TimeUnixMicroUTC.Unmarshal(bs[n:])
	n += n1
	return
}

func (s chunkMUS) Size(v Chunk) (size int) {
	for _, str := range []string{v.Author, v.FigureID, v.PaperTitle, v.Content} {
		size += ord.String.Size(str)
	}
	size += VectorMUS.Size(v.Embedding)
	size += varint.Int.Size(v.ChunkIndex)
	for _, str := range []string{v.Domain, v.SourceWork, v.Significance, v.PositionID, v.ContentHash} {
		size += ord.String.Size(str)
	}
	size += engagementsPtr.Size(v.Engagements)
	return size + raw.TimeUnixMicroUTC.Size(v.CreatedAt)
}

func (s chunkMUS) Skip(bs []byte) (n int, err error) {
	skips := []func([]byte) (int, error){
		ord.String.Skip, ord.String.Skip, ord.String.Skip, ord.String.Skip,
		VectorMUS.Skip, varint.Int.Skip,
		ord.String.Skip, ord.String.Skip, ord.String.Skip, ord.String.Skip,
		engagementsPtr.Skip, ord.String.Skip, raw.TimeUnixMicroUTC.Skip,
	}
	var n1 int
	for _, skip := range skips {
		n1, err = skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}
