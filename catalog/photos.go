package catalog

import "errors"

var ErrPhotoIndex = errors.New("photo index out of range")

// RemovePhotoAt returns a new slice without the photo at index and the
// removed URI. Later photos shift down by one; order is otherwise kept.
func RemovePhotoAt(photos []string, index int) ([]string, string, error) {
	if index < 0 || index >= len(photos) {
		return nil, "", ErrPhotoIndex
	}
	out := make([]string, 0, len(photos)-1)
	out = append(out, photos[:index]...)
	out = append(out, photos[index+1:]...)
	return out, photos[index], nil
}
