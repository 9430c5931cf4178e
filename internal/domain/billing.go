package domain

import "github.com/shopspring/decimal"

// BillingRow is one raw row from the GetBillingFileReservations stored
// procedure: relational hotel identity plus the reservation XML blob.
type BillingRow struct {
	ID            int64
	ChainName     *string
	ChainID       *int64
	HotelName     *string
	HotelID       *int64
	SAPID         *int64
	ConfirmNumber *string
	XML           *string // raw reservation payload, may be NULL
}

// BillingRecord is one fully assembled billing-file row. Every field is
// independently optional: a missing XML node leaves its field nil and
// never fails the record.
type BillingRecord struct {
	ID int64 `json:"ID"`

	// Hotel identity (from the stored-procedure row, not the XML)
	ChainName *string `json:"Chain_Name"`
	ChainID   *int64  `json:"Chain_ID"`
	HotelName *string `json:"Hotel_Name"`
	HotelID   *int64  `json:"Hotel_ID"`
	SAPID     *int64  `json:"SAP_ID"`

	// Reservation identity / status
	ConfirmNumber *string `json:"Confirm_Number"`
	ConfirmDate   *string `json:"Confirm_Date"`
	CancelNumber  *string `json:"Cancel_Number"`
	CancelDate    *string `json:"Cancel_Date"`
	ReinstateDate *string `json:"Reinstate_Date"`
	Status        *string `json:"Status"`

	// Guest identity
	Salutation     *string `json:"Salutation"`
	GuestFirstName *string `json:"Guest_First_Name"`
	GuestLastName  *string `json:"Guest_Last_Name"`
	GuestCountry   *string `json:"Guest_Country"`

	// Stay details
	ArrivalDate      *string `json:"Arrival_Date"`
	DepartureDate    *string `json:"Departure_Date"`
	Nights           *int    `json:"Nights"`
	RoomTypeName     *string `json:"Room_Type_Name"`
	RoomTypeCode     *string `json:"Room_Type_Code"`
	RateCategoryName *string `json:"Rate_Category_Name"`
	RateTypeName     *string `json:"Rate_Type_Name"`
	RateTypeCode     *string `json:"Rate_Type_Code"`
	Rooms            *int    `json:"Rooms"`

	// Monetary
	RevenueBeforeTax *decimal.Decimal `json:"Revenue_Before_Tax"`
	RevenueAfterTax  *decimal.Decimal `json:"Revenue_After_Tax"`
	RateInclusiveTax *decimal.Decimal `json:"Rate_Inclusive_Tax"`
	ADR              *decimal.Decimal `json:"ADR"`
	Currency         *string          `json:"Currency"`

	// Channel / source attribution
	Channel         *string `json:"Channel"`
	SecondarySource *string `json:"Secondary_Source"`
	SubSource       *string `json:"Sub_Source"`
	SubSourceCode   *string `json:"Sub_Source_Code"`
	CompanyName     *string `json:"Company_Name"`

	// Travel agency
	TravelAgencyName     *string `json:"Travel_Agency_Name"`
	TravelAgencyAddress1 *string `json:"Travel_Agency_Address1"`
	TravelAgencyAddress2 *string `json:"Travel_Agency_Address2"`
	TravelAgencyCity     *string `json:"Travel_Agency_City"`
	TravelAgencyState    *string `json:"Travel_Agency_State"`
	TravelAgencyZip      *string `json:"Travel_Agency_Zip"`
	TravelAgencyCountry  *string `json:"Travel_Agency_Country"`

	// Loyalty
	LoyaltyProgram   *string `json:"Loyalty_Program"`
	LoyaltyNumber    *string `json:"Loyalty_Number"`
	LoyaltyLevelName *string `json:"Loyalty_Level_Name"`
	LoyaltyLevelCode *string `json:"Loyalty_Level_Code"`
	LoyaltyType      *string `json:"Loyalty_Type"`

	// Extension fields
	TemplateName               *string          `json:"Template_Name"`
	ShellName                  *string          `json:"Shell_Name"`
	VisaInfo                   *string          `json:"Visa_Info"`
	RoomUpsellFlag             *string          `json:"Room_Upsell_Flag"`
	RoomUpsellRevenue          *decimal.Decimal `json:"Room_Upsell_Revenue"`
	CouponCode                 *string          `json:"Coupon_Code"`
	CommissionPercent          *decimal.Decimal `json:"Commission_Percent"`
	ItineraryNumber            *string          `json:"Itinerary_Number"`
	ChannelConnectConfirmNumber *string         `json:"Channel_Connect_Confirm_Number"`
}
