package models

// Member is one entry in the fixed roster. The roster is set at
// deployment time and never mutated at runtime; Name is the join key to
// payments and pending submissions.
type Member struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// DefaultRoster is the deployment default, overridable via ROSTER_JSON.
var DefaultRoster = []Member{
	{Name: "Afif Ramadhan", Role: "Bendahara & Admin"},
	{Name: "Arfan Khoeri", Role: "Member"},
	{Name: "Fakhrul Hibatullah", Role: "Koordinator Trip"},
	{Name: "Hanif Miladi Fauzan", Role: "Member"},
	{Name: "M. Alit Maulana Zikrillah", Role: "Member"},
	{Name: "M. Indra Ikmaludin", Role: "Member"},
	{Name: "Muadz", Role: "Member"},
	{Name: "Rendi Pratama", Role: "Member"},
}

// FindMember looks a member up by exact name.
func FindMember(roster []Member, name string) (Member, bool) {
	for _, m := range roster {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}
