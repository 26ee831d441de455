package core

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the domain types. Timestamps are encoded
// as Unix microseconds; vectors as a varint length followed by raw float32s.

var (
	// IDMUS serializes IDs.
	IDMUS = idMUS{}
	// LinkStatusMUS serializes LinkStatus values.
	LinkStatusMUS = linkStatusMUS{}
	// LinkMUS serializes Link records.
	LinkMUS = linkMUS{}
	// JobMUS serializes queue Job entries.
	JobMUS = jobMUS{}
	// EmbeddingMUS serializes Embedding records.
	EmbeddingMUS = embeddingMUS{}
)

var (
	_ mus.Serializer[ID]         = IDMUS
	_ mus.Serializer[LinkStatus] = LinkStatusMUS
	_ mus.Serializer[Link]       = LinkMUS
	_ mus.Serializer[Job]        = JobMUS
	_ mus.Serializer[Embedding]  = EmbeddingMUS
)

type idMUS struct{}

func (s idMUS) Marshal(id ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (s idMUS) Unmarshal(bs []byte) (id ID, n int, err error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (s idMUS) Size(id ID) (size int) {
	return varint.Uint64.Size(uint64(id))
}

func (s idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

type linkStatusMUS struct{}

func (s linkStatusMUS) Marshal(status LinkStatus, bs []byte) (n int) {
	return varint.Int.Marshal(int(status), bs)
}

func (s linkStatusMUS) Unmarshal(bs []byte) (status LinkStatus, n int, err error) {
	v, n, err := varint.Int.Unmarshal(bs)
	return LinkStatus(v), n, err
}

func (s linkStatusMUS) Size(status LinkStatus) (size int) {
	return varint.Int.Size(int(status))
}

func (s linkStatusMUS) Skip(bs []byte) (n int, err error) {
	return varint.Int.Skip(bs)
}

// timeMUS encodes time.Time as Unix microseconds.
type timeMUS struct{}

func (s timeMUS) Marshal(t time.Time, bs []byte) (n int) {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func (s timeMUS) Unmarshal(bs []byte) (t time.Time, n int, err error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func (s timeMUS) Size(t time.Time) (size int) {
	return varint.Int64.Size(t.UnixMicro())
}

func (s timeMUS) Skip(bs []byte) (n int, err error) {
	return varint.Int64.Skip(bs)
}

// stringsMUS encodes a []string as a varint length followed by the elements.
type stringsMUS struct{}

func (s stringsMUS) Marshal(v []string, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, elem := range v {
		n += ord.String.Marshal(elem, bs[n:])
	}
	return
}

func (s stringsMUS) Unmarshal(bs []byte) (v []string, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil || length == 0 {
		return
	}
	v = make([]string, length)
	var n1 int
	for i := 0; i < length; i++ {
		v[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (s stringsMUS) Size(v []string) (size int) {
	size = varint.Int.Size(len(v))
	for _, elem := range v {
		size += ord.String.Size(elem)
	}
	return
}

func (s stringsMUS) Skip(bs []byte) (n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	for i := 0; i < length; i++ {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

// vectorMUS encodes a []float32 as a varint length followed by raw floats.
type vectorMUS struct{}

func (s vectorMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return
}

func (s vectorMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil || length == 0 {
		return
	}
	v = make([]float32, length)
	var n1 int
	for i := 0; i < length; i++ {
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (s vectorMUS) Size(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return
}

func (s vectorMUS) Skip(bs []byte) (n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	for i := 0; i < length; i++ {
		n1, err = raw.Float32.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

var (
	timeSer    = timeMUS{}
	stringsSer = stringsMUS{}
	vectorSer  = vectorMUS{}
)

type linkMUS struct{}

func (s linkMUS) Marshal(link Link, bs []byte) (n int) {
	n = IDMUS.Marshal(link.Id, bs)
	n += ord.String.Marshal(link.URL, bs[n:])
	n += ord.String.Marshal(link.Title, bs[n:])
	n += ord.String.Marshal(link.Summary, bs[n:])
	n += stringsSer.Marshal(link.Tags, bs[n:])
	n += LinkStatusMUS.Marshal(link.Status, bs[n:])
	n += ord.String.Marshal(link.FailedReason, bs[n:])
	n += varint.Int.Marshal(link.AttemptCount, bs[n:])
	n += timeSer.Marshal(link.CreatedAt, bs[n:])
	n += timeSer.Marshal(link.UpdatedAt, bs[n:])
	return
}

func (s linkMUS) Unmarshal(bs []byte) (link Link, n int, err error) {
	var n1 int
	link.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	link.URL, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	link.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	link.Summary, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	link.Tags, n1, err = stringsSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	link.Status, n1, err = LinkStatusMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	link.FailedReason, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	link.AttemptCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	link.CreatedAt, n1, err = timeSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	link.UpdatedAt, n1, err = timeSer.Unmarshal(bs[n:])
	n += n1
	return
}

func (s linkMUS) Size(link Link) (size int) {
	size = IDMUS.Size(link.Id)
	size += ord.String.Size(link.URL)
	size += ord.String.Size(link.Title)
	size += ord.String.Size(link.Summary)
	size += stringsSer.Size(link.Tags)
	size += LinkStatusMUS.Size(link.Status)
	size += ord.String.Size(link.FailedReason)
	size += varint.Int.Size(link.AttemptCount)
	size += timeSer.Size(link.CreatedAt)
	size += timeSer.Size(link.UpdatedAt)
	return
}

func (s linkMUS) Skip(bs []byte) (n int, err error) {
	skips := []func([]byte) (int, error){
		IDMUS.Skip,
		ord.String.Skip,
		ord.String.Skip,
		ord.String.Skip,
		stringsSer.Skip,
		LinkStatusMUS.Skip,
		ord.String.Skip,
		varint.Int.Skip,
		timeSer.Skip,
		timeSer.Skip,
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

type jobMUS struct{}

func (s jobMUS) Marshal(job Job, bs []byte) (n int) {
	n = IDMUS.Marshal(job.LinkID, bs)
	n += timeSer.Marshal(job.EnqueuedAt, bs[n:])
	n += timeSer.Marshal(job.VisibleAt, bs[n:])
	n += ord.Bool.Marshal(job.Claimed, bs[n:])
	n += timeSer.Marshal(job.Deadline, bs[n:])
	return
}

func (s jobMUS) Unmarshal(bs []byte) (job Job, n int, err error) {
	var n1 int
	job.LinkID, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	job.EnqueuedAt, n1, err = timeSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	job.VisibleAt, n1, err = timeSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	job.Claimed, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	job.Deadline, n1, err = timeSer.Unmarshal(bs[n:])
	n += n1
	return
}

func (s jobMUS) Size(job Job) (size int) {
	size = IDMUS.Size(job.LinkID)
	size += timeSer.Size(job.EnqueuedAt)
	size += timeSer.Size(job.VisibleAt)
	size += ord.Bool.Size(job.Claimed)
	size += timeSer.Size(job.Deadline)
	return
}

func (s jobMUS) Skip(bs []byte) (n int, err error) {
	skips := []func([]byte) (int, error){
		IDMUS.Skip,
		timeSer.Skip,
		timeSer.Skip,
		ord.Bool.Skip,
		timeSer.Skip,
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

type embeddingMUS struct{}

func (s embeddingMUS) Marshal(emb Embedding, bs []byte) (n int) {
	n = IDMUS.Marshal(emb.LinkID, bs)
	n += vectorSer.Marshal(emb.Vector, bs[n:])
	return
}

func (s embeddingMUS) Unmarshal(bs []byte) (emb Embedding, n int, err error) {
	var n1 int
	emb.LinkID, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	emb.Vector, n1, err = vectorSer.Unmarshal(bs[n:])
	n += n1
	return
}

func (s embeddingMUS) Size(emb Embedding) (size int) {
	size = IDMUS.Size(emb.LinkID)
	size += vectorSer.Size(emb.Vector)
	return
}

func (s embeddingMUS) Skip(bs []byte) (n int, err error) {
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = vectorSer.Skip(bs[n:])
	n += n1
	return
}
