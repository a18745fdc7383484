package item

import (
	"fmt"

	"github.com/arloliu/d2s/bitstream"
	"github.com/arloliu/d2s/errs"
)

// typeCodeLen is the number of characters in a wire type code, including the
// space padding of three-character codes.
const typeCodeLen = 4

// huffmanCodes maps each type code character to its prefix code, written
// first bit first.
var huffmanCodes = map[byte]string{
	' ': "10", '0': "11111011", '1': "1111100", '2': "001100", '3': "1101101",
	'4': "11111010", '5': "00010110", '6': "1101111", '7': "01111", '8': "000100",
	'9': "01110", 'a': "11110", 'b': "0101", 'c': "01000", 'd': "110001",
	'e': "110000", 'f': "010011", 'g': "11010", 'h': "00011", 'i': "1111110",
	'j': "000101110", 'k': "010010", 'l': "11101", 'm': "01101", 'n': "001101",
	'o': "1111111", 'p': "11001", 'q': "11011001", 'r': "11100", 's': "0010",
	't': "01100", 'u': "00001", 'v': "1101110", 'w': "00000", 'x': "00111",
	'y': "0001010", 'z': "11011000",
}

type huffNode struct {
	next [2]int // child node index, 0 when absent
	leaf bool
	char byte
}

var huffTree = buildHuffTree()

func buildHuffTree() []huffNode {
	tree := []huffNode{{}}
	for ch, code := range huffmanCodes {
		n := 0
		for i := 0; i < len(code); i++ {
			b := code[i] - '0'
			if tree[n].next[b] == 0 {
				tree = append(tree, huffNode{})
				tree[n].next[b] = len(tree) - 1
			}
			n = tree[n].next[b]
		}
		tree[n].leaf = true
		tree[n].char = ch
	}

	return tree
}

func readHuffmanCode(cur *bitstream.Cursor) (string, error) {
	var code [typeCodeLen]byte
	for i := range code {
		n := 0
		for !huffTree[n].leaf {
			b, err := cur.ReadBits(1)
			if err != nil {
				return "", err
			}

			next := huffTree[n].next[b]
			if next == 0 {
				return "", fmt.Errorf("%w: invalid type code bit sequence at bit %d", errs.ErrCorruptItem, cur.BitPos())
			}
			n = next
		}
		code[i] = huffTree[n].char
	}

	return string(code[:]), nil
}

func writeHuffmanCode(cur *bitstream.Cursor, code string) error {
	padded, err := padCode(code)
	if err != nil {
		return err
	}

	for i := 0; i < typeCodeLen; i++ {
		bits, ok := huffmanCodes[padded[i]]
		if !ok {
			return fmt.Errorf("%w: type code %q has no Huffman code for %q", errs.ErrCorruptItem, code, padded[i])
		}

		for j := 0; j < len(bits); j++ {
			if err := cur.WriteBits(1, uint64(bits[j]-'0')); err != nil {
				return err
			}
		}
	}

	return nil
}

func readPlainCode(cur *bitstream.Cursor) (string, error) {
	var code [typeCodeLen]byte
	for i := range code {
		v, err := cur.ReadBits(8)
		if err != nil {
			return "", err
		}
		code[i] = byte(v)
	}

	return string(code[:]), nil
}

func writePlainCode(cur *bitstream.Cursor, code string) error {
	padded, err := padCode(code)
	if err != nil {
		return err
	}

	for i := 0; i < typeCodeLen; i++ {
		if err := cur.WriteBits(8, uint64(padded[i])); err != nil {
			return err
		}
	}

	return nil
}

func padCode(code string) (string, error) {
	if len(code) == 0 || len(code) > typeCodeLen {
		return "", fmt.Errorf("%w: type code %q must be 1-4 characters", errs.ErrCorruptItem, code)
	}

	for len(code) < typeCodeLen {
		code += " "
	}

	return code, nil
}
