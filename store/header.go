package store

import "bytes"

// Magic is the 10-byte file signature (spec.md §6.1).
var Magic = []byte{0xd0, 0xd4, 0xc5, 0xd8, 'C', 'a', 's', 't', 'o', 'r'}

// FormatVersion is the current on-disk format version. It implies the
// hash32 algorithm frozen in hash.go (SPEC_FULL.md open-question decision 1).
const FormatVersion = 6

// Order is one of the six triple component permutations (spec.md GLOSSARY).
type Order int

const (
	OrderSPO Order = iota
	OrderSOP
	OrderPSO
	OrderPOS
	OrderOSP
	OrderOPS
	orderCount
)

func (o Order) String() string {
	return [...]string{"SPO", "SOP", "PSO", "POS", "OSP", "OPS"}[o]
}

// orderIndex describes one order's on-disk roots (spec.md §6.1 item 3).
type orderIndex struct {
	begin, end     uint32
	indexRoot      uint32
	aggregatedRoot uint32
}

type header struct {
	triplesCount   uint64
	rawTableFirst  uint32
	orders         [orderCount]orderIndex
	fullyAggSPO    uint32
	fullyAggPSO    uint32
	fullyAggOSP    uint32
	stringsCount   uint32
	stringsBegin   uint32
	stringsMapping int64
	stringsIndex   uint32
	valuesCount    uint32
	valuesBegin    int64
	valuesIndex    uint32
	eqClassesOff   int64
	categoryStart  [CategoryCount + 1]uint32
}

func readHeader(pf *pagedFile) (*header, error) {
	c := pf.cursorAtOffset(0)
	magic, err := c.readBytes(len(Magic))
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(magic, Magic) {
		return nil, corruptf("bad magic: %x", magic)
	}
	version, err := c.readInt()
	if err != nil {
		return nil, err
	}
	if version != FormatVersion {
		return nil, corruptf("unsupported format version %d (want %d)", version, FormatVersion)
	}

	h := &header{}
	tc, err := c.readLong()
	if err != nil {
		return nil, err
	}
	h.triplesCount = tc
	if h.rawTableFirst, err = c.readInt(); err != nil {
		return nil, err
	}
	for i := range h.orders {
		var oi orderIndex
		if oi.begin, err = c.readInt(); err != nil {
			return nil, err
		}
		if oi.end, err = c.readInt(); err != nil {
			return nil, err
		}
		if oi.indexRoot, err = c.readInt(); err != nil {
			return nil, err
		}
		if oi.aggregatedRoot, err = c.readInt(); err != nil {
			return nil, err
		}
		h.orders[i] = oi
	}
	if h.fullyAggSPO, err = c.readInt(); err != nil {
		return nil, err
	}
	if h.fullyAggPSO, err = c.readInt(); err != nil {
		return nil, err
	}
	if h.fullyAggOSP, err = c.readInt(); err != nil {
		return nil, err
	}
	if h.stringsCount, err = c.readInt(); err != nil {
		return nil, err
	}
	if h.stringsBegin, err = c.readInt(); err != nil {
		return nil, err
	}
	mapOff, err := c.readLong()
	if err != nil {
		return nil, err
	}
	h.stringsMapping = int64(mapOff)
	if h.stringsIndex, err = c.readInt(); err != nil {
		return nil, err
	}
	if h.valuesCount, err = c.readInt(); err != nil {
		return nil, err
	}
	valOff, err := c.readLong()
	if err != nil {
		return nil, err
	}
	h.valuesBegin = int64(valOff)
	if h.valuesIndex, err = c.readInt(); err != nil {
		return nil, err
	}
	eqOff, err := c.readLong()
	if err != nil {
		return nil, err
	}
	h.eqClassesOff = int64(eqOff)
	for i := range h.categoryStart {
		if h.categoryStart[i], err = c.readInt(); err != nil {
			return nil, err
		}
	}
	return h, nil
}
