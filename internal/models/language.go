package models

// Language is an entry of the language directory.
// Two languages are the same language when their codes match.
type Language struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Favorite bool   `json:"favorite,omitempty"`
}

// Equal compares languages by code only
func (l Language) Equal(other Language) bool {
	return l.Code == other.Code
}

// LanguagePair is the "src-dst" value of the lang lookup parameter
func LanguagePair(source, dest string) string {
	return source + "-" + dest
}
