package types

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Compact block structures as streamed by the light chain service. The wire
// format is the protobuf encoding of lightwalletd's compact_formats schema;
// marshalling is done directly with protowire so the structs stay plain.

type (
	// CompactBlock is a block stripped down to the data needed for trial
	// decryption: heights, hashes and the shielded portion of every
	// transaction.
	CompactBlock struct {
		ProtoVersion uint32
		Height       uint64
		Hash         []byte
		PrevHash     []byte
		Time         uint32
		Header       []byte
		Vtx          []*CompactTx
	}

	// CompactTx carries the shielded spends and outputs of one transaction.
	CompactTx struct {
		Index   uint64
		Hash    []byte
		Fee     uint32
		Spends  []*CompactSpend
		Outputs []*CompactOutput
	}

	// CompactSpend is a revealed nullifier.
	CompactSpend struct {
		Nf []byte
	}

	// CompactOutput is the note commitment, the ephemeral key and the
	// truncated ciphertext of one shielded output.
	CompactOutput struct {
		Cmu        []byte
		Epk        []byte
		Ciphertext []byte
	}
)

// CompactCiphertextLen is the number of ciphertext bytes kept per compact
// output; enough to recover the diversifier, value and note randomness.
const CompactCiphertextLen = 52

// TxID returns the transaction hash as a TxID.
func (tx *CompactTx) TxID() TxID {
	var id TxID
	copy(id[:], tx.Hash)
	return id
}

// BlockHash returns the block hash as a Hash.
func (cb *CompactBlock) BlockHash() Hash {
	var h Hash
	copy(h[:], cb.Hash)
	return h
}

// PrevBlockHash returns the previous block hash as a Hash.
func (cb *CompactBlock) PrevBlockHash() Hash {
	var h Hash
	copy(h[:], cb.PrevHash)
	return h
}

// Marshal encodes the block to its protobuf wire form.
func (cb *CompactBlock) Marshal() []byte {
	var b []byte
	if cb.ProtoVersion != 0 {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(cb.ProtoVersion))
	}
	if cb.Height != 0 {
		b = protowire.AppendTag(b, 2, protowire.VarintType)
		b = protowire.AppendVarint(b, cb.Height)
	}
	if len(cb.Hash) > 0 {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, cb.Hash)
	}
	if len(cb.PrevHash) > 0 {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		b = protowire.AppendBytes(b, cb.PrevHash)
	}
	if cb.Time != 0 {
		b = protowire.AppendTag(b, 5, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(cb.Time))
	}
	if len(cb.Header) > 0 {
		b = protowire.AppendTag(b, 6, protowire.BytesType)
		b = protowire.AppendBytes(b, cb.Header)
	}
	for _, tx := range cb.Vtx {
		b = protowire.AppendTag(b, 7, protowire.BytesType)
		b = protowire.AppendBytes(b, tx.Marshal())
	}
	return b
}

// Unmarshal decodes the protobuf wire form of a compact block.
func (cb *CompactBlock) Unmarshal(b []byte) error {
	*cb = CompactBlock{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			cb.ProtoVersion, b = uint32(v), b[m:]
		case num == 2 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			cb.Height, b = v, b[m:]
		case num == 3 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			cb.Hash, b = append([]byte(nil), v...), b[m:]
		case num == 4 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			cb.PrevHash, b = append([]byte(nil), v...), b[m:]
		case num == 5 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			cb.Time, b = uint32(v), b[m:]
		case num == 6 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			cb.Header, b = append([]byte(nil), v...), b[m:]
		case num == 7 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			tx := new(CompactTx)
			if err := tx.Unmarshal(v); err != nil {
				return err
			}
			cb.Vtx, b = append(cb.Vtx, tx), b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			b = b[m:]
		}
	}
	return nil
}

// Marshal encodes the transaction to its protobuf wire form.
func (tx *CompactTx) Marshal() []byte {
	var b []byte
	if tx.Index != 0 {
		b = protowire.AppendTag(b, 1, protowire.VarintType)
		b = protowire.AppendVarint(b, tx.Index)
	}
	if len(tx.Hash) > 0 {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, tx.Hash)
	}
	if tx.Fee != 0 {
		b = protowire.AppendTag(b, 3, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(tx.Fee))
	}
	for _, s := range tx.Spends {
		b = protowire.AppendTag(b, 4, protowire.BytesType)
		var sb []byte
		sb = protowire.AppendTag(sb, 1, protowire.BytesType)
		sb = protowire.AppendBytes(sb, s.Nf)
		b = protowire.AppendBytes(b, sb)
	}
	for _, o := range tx.Outputs {
		b = protowire.AppendTag(b, 5, protowire.BytesType)
		var ob []byte
		ob = protowire.AppendTag(ob, 1, protowire.BytesType)
		ob = protowire.AppendBytes(ob, o.Cmu)
		ob = protowire.AppendTag(ob, 2, protowire.BytesType)
		ob = protowire.AppendBytes(ob, o.Epk)
		ob = protowire.AppendTag(ob, 3, protowire.BytesType)
		ob = protowire.AppendBytes(ob, o.Ciphertext)
		b = protowire.AppendBytes(b, ob)
	}
	return b
}

// Unmarshal decodes the protobuf wire form of a compact transaction.
func (tx *CompactTx) Unmarshal(b []byte) error {
	*tx = CompactTx{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			tx.Index, b = v, b[m:]
		case num == 2 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			tx.Hash, b = append([]byte(nil), v...), b[m:]
		case num == 3 && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			tx.Fee, b = uint32(v), b[m:]
		case num == 4 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			s := new(CompactSpend)
			if err := s.unmarshal(v); err != nil {
				return err
			}
			tx.Spends, b = append(tx.Spends, s), b[m:]
		case num == 5 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			o := new(CompactOutput)
			if err := o.unmarshal(v); err != nil {
				return err
			}
			tx.Outputs, b = append(tx.Outputs, o), b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			b = b[m:]
		}
	}
	return nil
}

func (s *CompactSpend) unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		if num == 1 && typ == protowire.BytesType {
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			s.Nf, b = append([]byte(nil), v...), b[m:]
			continue
		}
		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	if len(s.Nf) != HashSize {
		return fmt.Errorf("compact spend: nullifier is %d bytes", len(s.Nf))
	}
	return nil
}

func (o *CompactOutput) unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			o.Cmu, b = append([]byte(nil), v...), b[m:]
		case num == 2 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			o.Epk, b = append([]byte(nil), v...), b[m:]
		case num == 3 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			o.Ciphertext, b = append([]byte(nil), v...), b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return protowire.ParseError(m)
			}
			b = b[m:]
		}
	}
	if len(o.Cmu) != HashSize || len(o.Epk) == 0 {
		return fmt.Errorf("compact output: cmu/epk have lengths %d/%d", len(o.Cmu), len(o.Epk))
	}
	return nil
}
