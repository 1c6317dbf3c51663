package sigpart

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sugawarayuuta/sonnet"

	sperrors "github.com/tamirms/sigpart/errors"
)

const (
	// ManifestName is the manifest file name inside the output root.
	ManifestName = "info.json"

	// BlocksDir is the super-block directory inside the output root.
	BlocksDir = "blocks"

	maskKeyPrefix = "ham_"
	passDirPrefix = "hamming"
)

// PassDir returns the directory name of mask i's output tree.
func PassDir(i int) string {
	return passDirPrefix + strconv.Itoa(i)
}

// Manifest is the durable description of a run, stored as info.json.
//
// Document keys:
//
//	ham_<i>      string  mask i as a decimal integer
//	block_size   number  super-block edge length
//	num_bits     number  signature bit width covered by the masks
//	hash_bits    number  bits per mask
//	partitions   number  buckets per partitioning
//	max_match    number  duplicate cap per signature
//	seed         string  shuffle seed as a decimal integer
//	num_records  number  records loaded
//	source_xxh3  string  xxh3-64 of the input, 16 hex digits
//	checksums    object  output path -> xxhash64, 16 hex digits
//
// Only the ham_<i>, block_size and num_bits keys are required when reading.
type Manifest struct {
	Masks      []uint64
	BlockSize  uint32
	NumBits    int
	HashBits   int
	Partitions uint32
	MaxMatch   int
	Seed       uint64
	NumRecords uint64
	SourceHash uint64

	// Checksums maps slash-separated paths relative to the output root to
	// the xxhash64 of each file's bytes.
	Checksums map[string]uint64
}

// MarshalJSON encodes the manifest document.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(m.Masks)+9)
	for i, mask := range m.Masks {
		doc[maskKeyPrefix+strconv.Itoa(i)] = strconv.FormatUint(mask, 10)
	}
	doc["block_size"] = m.BlockSize
	doc["num_bits"] = m.NumBits
	doc["hash_bits"] = m.HashBits
	doc["partitions"] = m.Partitions
	doc["max_match"] = m.MaxMatch
	doc["seed"] = strconv.FormatUint(m.Seed, 10)
	doc["num_records"] = m.NumRecords
	doc["source_xxh3"] = formatHash(m.SourceHash)

	sums := make(map[string]string, len(m.Checksums))
	for path, sum := range m.Checksums {
		sums[path] = formatHash(sum)
	}
	doc["checksums"] = sums
	return sonnet.Marshal(doc)
}

// UnmarshalJSON decodes a manifest document, including ones written by
// older tools that carry only the mask, block size and bit width keys.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var doc map[string]any
	if err := sonnet.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", sperrors.ErrInvalidManifest, err)
	}

	var out Manifest
	for i := 0; ; i++ {
		v, ok := doc[maskKeyPrefix+strconv.Itoa(i)]
		if !ok {
			break
		}
		mask, err := parseDecimal(v)
		if err != nil {
			return fmt.Errorf("%w: %s%d: %v", sperrors.ErrInvalidManifest, maskKeyPrefix, i, err)
		}
		out.Masks = append(out.Masks, mask)
	}
	maskKeys := 0
	for k := range doc {
		if strings.HasPrefix(k, maskKeyPrefix) {
			maskKeys++
		}
	}
	if len(out.Masks) == 0 || maskKeys != len(out.Masks) {
		return fmt.Errorf("%w: mask keys must be %s0..%sN without gaps", sperrors.ErrInvalidManifest, maskKeyPrefix, maskKeyPrefix)
	}

	blockSize, err := requireNumber(doc, "block_size", math.MaxUint32)
	if err != nil {
		return err
	}
	numBits, err := requireNumber(doc, "num_bits", 64)
	if err != nil {
		return err
	}
	out.BlockSize = uint32(blockSize)
	out.NumBits = int(numBits)
	if out.BlockSize == 0 {
		return fmt.Errorf("%w: block_size is zero", sperrors.ErrInvalidManifest)
	}

	out.HashBits = out.NumBits / len(out.Masks)
	if v, ok, err := optionalNumber(doc, "hash_bits", 64); err != nil {
		return err
	} else if ok {
		out.HashBits = int(v)
	}
	out.Partitions = DefaultPartitions
	if v, ok, err := optionalNumber(doc, "partitions", math.MaxUint32); err != nil {
		return err
	} else if ok {
		out.Partitions = uint32(v)
	}
	if out.Partitions == 0 {
		return fmt.Errorf("%w: partitions is zero", sperrors.ErrInvalidManifest)
	}
	if v, ok, err := optionalNumber(doc, "max_match", math.MaxInt32); err != nil {
		return err
	} else if ok {
		out.MaxMatch = int(v)
	}
	if v, ok, err := optionalNumber(doc, "num_records", 1<<53); err != nil {
		return err
	} else if ok {
		out.NumRecords = v
	}
	if v, ok := doc["seed"]; ok {
		if out.Seed, err = parseDecimal(v); err != nil {
			return fmt.Errorf("%w: seed: %v", sperrors.ErrInvalidManifest, err)
		}
	}
	if v, ok := doc["source_xxh3"]; ok {
		if out.SourceHash, err = parseHash(v); err != nil {
			return fmt.Errorf("%w: source_xxh3: %v", sperrors.ErrInvalidManifest, err)
		}
	}
	if v, ok := doc["checksums"]; ok {
		sums, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: checksums is not an object", sperrors.ErrInvalidManifest)
		}
		out.Checksums = make(map[string]uint64, len(sums))
		for path, s := range sums {
			sum, err := parseHash(s)
			if err != nil {
				return fmt.Errorf("%w: checksum of %s: %v", sperrors.ErrInvalidManifest, path, err)
			}
			out.Checksums[path] = sum
		}
	}

	*m = out
	return nil
}

// PartitionsFor returns the bucket of sig under every mask, in mask order.
func (m *Manifest) PartitionsFor(sig Signature) []uint32 {
	parts := make([]uint32, len(m.Masks))
	for i, mask := range m.Masks {
		parts[i] = Partition(sig, mask, m.Partitions)
	}
	return parts
}

// WriteManifest writes m to path.
func WriteManifest(path string, m *Manifest) error {
	data, err := m.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest reads and decodes the manifest at path.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m := new(Manifest)
	if err := m.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return m, nil
}

func formatHash(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

func parseHash(v any) (uint64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("want string, got %T", v)
	}
	return strconv.ParseUint(s, 16, 64)
}

// parseDecimal accepts a decimal string, or a JSON number for manifests
// written by hand.
func parseDecimal(v any) (uint64, error) {
	switch t := v.(type) {
	case string:
		return strconv.ParseUint(t, 10, 64)
	case float64:
		if t < 0 || t != math.Trunc(t) || t >= 1<<53 {
			return 0, fmt.Errorf("number %v is not an exact unsigned integer", t)
		}
		return uint64(t), nil
	default:
		return 0, fmt.Errorf("want string, got %T", v)
	}
}

func requireNumber(doc map[string]any, key string, limit uint64) (uint64, error) {
	v, ok, err := optionalNumber(doc, key, limit)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", sperrors.ErrInvalidManifest, key)
	}
	return v, nil
}

func optionalNumber(doc map[string]any, key string, limit uint64) (uint64, bool, error) {
	v, ok := doc[key]
	if !ok {
		return 0, false, nil
	}
	f, isNum := v.(float64)
	if !isNum || f < 0 || f != math.Trunc(f) || f > float64(limit) {
		return 0, false, fmt.Errorf("%w: %s must be an integer in [0, %d], got %v", sperrors.ErrInvalidManifest, key, limit, v)
	}
	return uint64(f), true, nil
}
