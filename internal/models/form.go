package models

// Form groups fields and the records collected against them.
type Form struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	Username    string `db:"username" json:"username,omitempty"`
}

// FormPatch is a partial form update; nil members are left unchanged.
type FormPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p FormPatch) Empty() bool {
	return p.Name == nil && p.Description == nil
}
