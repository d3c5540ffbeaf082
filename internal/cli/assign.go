package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/calvinalkan/docbind/pkg/docbind"
)

var errBadAssignment = errors.New("assignment must be address=value")

// assign applies "address=value" pairs to root. An empty value clears the
// target. Group indexes may name the next free position to append a member.
func assign(c *docbind.Codec, root *docbind.Element, pairs []string) error {
	for _, pair := range pairs {
		addr, text, ok := strings.Cut(pair, "=")
		if !ok || addr == "" {
			return fmt.Errorf("%w: %q", errBadAssignment, pair)
		}

		t, err := resolve(root, addr, true)
		if err != nil {
			return err
		}

		var v any

		if text != "" {
			typ, err := t.typ()
			if err != nil {
				return err
			}

			v, err = c.Decode(typ, text)
			if err != nil {
				return fmt.Errorf("%s: %w", addr, err)
			}
		}

		err = t.set(v)
		if err != nil {
			return fmt.Errorf("%s: %w", addr, err)
		}
	}

	return nil
}

// fillKeys assigns a random UUID to every absent uuid primary field of root.
func fillKeys(root *docbind.Element) error {
	for _, f := range root.Schema().PrimaryFields() {
		if f.Type.Kind != docbind.KindUUID {
			continue
		}

		slot, err := root.Slot(f.Name)
		if err != nil {
			return err
		}

		if slot.Get() != nil {
			continue
		}

		err = slot.Set(uuid.New())
		if err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}

	return nil
}
