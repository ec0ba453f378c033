package contact

// Merge copies every field set in src into dst and returns the fields that
// changed. Without overwrite only unset fields of dst are filled. Fields
// maintained by storage (ids, timestamps, use count) are never merged.
func Merge(dst, src *Contact, overwrite bool) []Field {
	if dst == nil || src == nil {
		return nil
	}
	var changed []Field
	for _, f := range ordered {
		if f.IsIdentity() || !Contains(src, f) {
			continue
		}
		if !overwrite && Contains(dst, f) {
			continue
		}
		v, _ := f.Switch(Getter{}, src, nil)
		old, _ := f.Switch(Getter{}, dst, nil)
		if equalValues(old, v) {
			continue
		}
		if _, err := f.Switch(Setter{}, dst, v); err != nil {
			continue
		}
		changed = append(changed, f)
	}
	return changed
}

// Diff returns the fields whose values differ between a and b, in id order.
func Diff(a, b *Contact) []Field {
	if a == nil || b == nil {
		return nil
	}
	var out []Field
	for _, f := range ordered {
		x, _ := f.Switch(Getter{}, a, nil)
		y, _ := f.Switch(Getter{}, b, nil)
		if !equalValues(x, y) {
			out = append(out, f)
		}
	}
	return out
}

// Copy sets the listed fields of dst from src, including clearing fields
// unset in src. Unknown fields are reported as an error.
func Copy(dst, src *Contact, fields []Field) error {
	for _, f := range fields {
		v, err := f.Switch(Getter{}, src, nil)
		if err != nil {
			return err
		}
		if Contains(src, f) {
			_, err = f.Switch(Setter{}, dst, v)
		} else {
			_, err = f.Switch(Setter{}, dst, nil)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
