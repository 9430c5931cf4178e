package domain

// Hotel mirrors the MemberPortal hotel table.
type Hotel struct {
	ID           int64
	TrustCode    *string
	Name         string
	CountryCode  string
	CityCode     *string
	ChainID      int64
	BookingURL   *string
	IsEnterprise *bool
	TrustYouID   *string
	Active       bool
}

// Reservation is the read-only view over the FullReservation table. Only
// the commonly consumed columns are surfaced.
type Reservation struct {
	ID            int64
	ChainName     *string
	ChainID       *int64
	HotelName     *string
	HotelID       *int64
	HotelCode     *string
	Status        *string
	ConfirmNumber *string
	GuestFirst    *string
	GuestLast     *string
	ArrivalDate   *string
	DepartureDate *string
	Nights        *int
	RoomTypeName  *string
	Rooms         *int
	Revenue       *string
	Currency      *string
	Channel       *string
	SubSource     *string
}
