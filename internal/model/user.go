package model

// User — учётная запись. Ключ хранения — ID, ключ для входа — Email.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`

	Phone        string `json:"phone,omitempty"`
	DateOfBirth  string `json:"dateOfBirth,omitempty"`
	IsNewPatient *bool  `json:"isNewPatient,omitempty"`

	// bcrypt-хэш; в снимок текущего пользователя не попадает.
	PasswordHash string `json:"passwordHash,omitempty"`

	// История завершённых записей, только дописывается.
	Bookings []BookingDetails `json:"bookings"`
}

// Clone возвращает независимую копию вместе с историей записей.
func (u User) Clone() User {
	out := u
	if u.IsNewPatient != nil {
		v := *u.IsNewPatient
		out.IsNewPatient = &v
	}
	out.Bookings = CloneBookings(u.Bookings)
	return out
}

// Snapshot — копия без секретов, в таком виде пользователь отдаётся наружу.
func (u User) Snapshot() User {
	out := u.Clone()
	out.PasswordHash = ""
	return out
}

// AuthState: либо {nil, false}, либо {user, true}.
type AuthState struct {
	User            *User `json:"user"`
	IsAuthenticated bool  `json:"isAuthenticated"`
}
