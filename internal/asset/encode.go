package asset

import (
	"encoding/base64"
	"sort"
	"strconv"

	"github.com/algorand/go-algorand-sdk/v2/encoding/msgpack"
	"github.com/algorand/go-algorand-sdk/v2/types"
)

// Encode returns the signing request for t: a list holding exactly one
// msgpack-encoded unsigned transaction.
func (t *Transaction) Encode() [][]byte {
	return [][]byte{msgpack.Encode(&t.Txn)}
}

// EncodeBase64 returns Encode with every entry base64 encoded, the form the
// browser wallet widget expects.
func (t *Transaction) EncodeBase64() []string {
	raw := t.Encode()
	out := make([]string, len(raw))
	for i, b := range raw {
		out[i] = base64.StdEncoding.EncodeToString(b)
	}
	return out
}

// Field is one entry of the read-only transaction dump.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Details returns the transaction as a flat key/value list using the
// ledger's short field names, sorted by key. Empty fields are omitted the
// same way the canonical encoding omits them.
func (t *Transaction) Details() []Field {
	m := t.DetailsMap()
	var fields []Field
	flatten("", m, &fields)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Key < fields[j].Key })
	return fields
}

// DetailsMap returns the transaction as a nested map keyed by the ledger's
// short field names.
func (t *Transaction) DetailsMap() map[string]interface{} {
	txn := t.Txn
	m := map[string]interface{}{
		"type": string(txn.Type),
		"snd":  txn.Sender.String(),
		"fee":  uint64(txn.Fee),
		"fv":   uint64(txn.FirstValid),
		"lv":   uint64(txn.LastValid),
	}
	if txn.GenesisID != "" {
		m["gen"] = txn.GenesisID
	}
	if txn.GenesisHash != (types.Digest{}) {
		m["gh"] = base64.StdEncoding.EncodeToString(txn.GenesisHash[:])
	}
	if len(txn.Note) > 0 {
		m["note"] = base64.StdEncoding.EncodeToString(txn.Note)
	}
	if txn.Lease != ([32]byte{}) {
		m["lx"] = base64.StdEncoding.EncodeToString(txn.Lease[:])
	}
	if !txn.RekeyTo.IsZero() {
		m["rekey"] = txn.RekeyTo.String()
	}

	switch txn.Type {
	case types.AssetConfigTx:
		if txn.ConfigAsset != 0 {
			m["caid"] = uint64(txn.ConfigAsset)
		}
		if apar := assetParamsMap(txn.AssetParams); len(apar) > 0 {
			m["apar"] = apar
		}
	case types.PaymentTx:
		m["rcv"] = txn.Receiver.String()
		if txn.Amount != 0 {
			m["amt"] = uint64(txn.Amount)
		}
	}
	return m
}

func assetParamsMap(p types.AssetParams) map[string]interface{} {
	m := map[string]interface{}{}
	if p.Total != 0 {
		m["t"] = p.Total
	}
	if p.Decimals != 0 {
		m["dc"] = p.Decimals
	}
	if p.DefaultFrozen {
		m["df"] = true
	}
	if p.UnitName != "" {
		m["un"] = p.UnitName
	}
	if p.AssetName != "" {
		m["an"] = p.AssetName
	}
	if p.URL != "" {
		m["au"] = p.URL
	}
	if p.MetadataHash != ([32]byte{}) {
		m["am"] = base64.StdEncoding.EncodeToString(p.MetadataHash[:])
	}
	for key, addr := range map[string]types.Address{
		"m": p.Manager,
		"r": p.Reserve,
		"f": p.Freeze,
		"c": p.Clawback,
	} {
		if !addr.IsZero() {
			m[key] = addr.String()
		}
	}
	return m
}

func flatten(prefix string, m map[string]interface{}, out *[]Field) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			flatten(key, val, out)
		case string:
			*out = append(*out, Field{Key: key, Value: val})
		case uint64:
			*out = append(*out, Field{Key: key, Value: strconv.FormatUint(val, 10)})
		case uint32:
			*out = append(*out, Field{Key: key, Value: strconv.FormatUint(uint64(val), 10)})
		case bool:
			*out = append(*out, Field{Key: key, Value: strconv.FormatBool(val)})
		}
	}
}
