package app

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	xmlpath "gopkg.in/xmlpath.v2"

	"billingfile/internal/domain"
)

/********** extraction rule table (single source of truth) **********/

// xmlRule binds one record field to a fixed path in the reservation XML.
// Paths use element local names, so namespace-qualified OTA documents
// match as-is. Adding a field is a one-entry edit here.
type xmlRule struct {
	field  string
	path   *xmlpath.Path
	assign func(r *domain.BillingRecord, v string)
}

var reservationRules = []xmlRule{
	// Reservation identity / status. HotelReservationID carries typed
	// identifiers: 14=confirmation, 15=cancellation, 34=itinerary,
	// 13=channel-connect confirmation.
	{"Confirm_Date", mustPath(`//HotelReservationID[@ResID_Type='14']/@ResID_Date`),
		func(r *domain.BillingRecord, v string) { r.ConfirmDate = ptrStr(v) }},
	{"Cancel_Number", mustPath(`//HotelReservationID[@ResID_Type='15']/@ResID_Value`),
		func(r *domain.BillingRecord, v string) { r.CancelNumber = ptrStr(v) }},
	{"Cancel_Date", mustPath(`//HotelReservationID[@ResID_Type='15']/@ResID_Date`),
		func(r *domain.BillingRecord, v string) { r.CancelDate = ptrStr(v) }},
	{"Itinerary_Number", mustPath(`//HotelReservationID[@ResID_Type='34']/@ResID_Value`),
		func(r *domain.BillingRecord, v string) { r.ItineraryNumber = ptrStr(v) }},
	{"Channel_Connect_Confirm_Number", mustPath(`//HotelReservationID[@ResID_Type='13']/@ResID_Value`),
		func(r *domain.BillingRecord, v string) { r.ChannelConnectConfirmNumber = ptrStr(v) }},
	{"Status", mustPath(`//HotelReservation/@ResStatus`),
		func(r *domain.BillingRecord, v string) { r.Status = ptrStr(v) }},
	{"Reinstate_Date", mustPath(`//TPA_Extensions/ReinstateDate`),
		func(r *domain.BillingRecord, v string) { r.ReinstateDate = ptrStr(v) }},

	// Guest identity
	{"Salutation", mustPath(`//ResGuests//Customer/PersonName/NamePrefix`),
		func(r *domain.BillingRecord, v string) { r.Salutation = ptrStr(v) }},
	{"Guest_First_Name", mustPath(`//ResGuests//Customer/PersonName/GivenName`),
		func(r *domain.BillingRecord, v string) { r.GuestFirstName = ptrStr(v) }},
	{"Guest_Last_Name", mustPath(`//ResGuests//Customer/PersonName/Surname`),
		func(r *domain.BillingRecord, v string) { r.GuestLastName = ptrStr(v) }},
	{"Guest_Country", mustPath(`//ResGuests//Customer/Address/CountryName`),
		func(r *domain.BillingRecord, v string) { r.GuestCountry = ptrStr(v) }},

	// Stay details
	{"Arrival_Date", mustPath(`//RoomStay/TimeSpan/@Start`),
		func(r *domain.BillingRecord, v string) { r.ArrivalDate = ptrStr(v) }},
	{"Departure_Date", mustPath(`//RoomStay/TimeSpan/@End`),
		func(r *domain.BillingRecord, v string) { r.DepartureDate = ptrStr(v) }},
	{"Room_Type_Name", mustPath(`//RoomStay/RoomTypes/RoomType/RoomDescription/@Name`),
		func(r *domain.BillingRecord, v string) { r.RoomTypeName = ptrStr(v) }},
	{"Room_Type_Code", mustPath(`//RoomStay/RoomTypes/RoomType/@RoomTypeCode`),
		func(r *domain.BillingRecord, v string) { r.RoomTypeCode = ptrStr(v) }},
	{"Rate_Category_Name", mustPath(`//RatePlan/AdditionalDetails/AdditionalDetail[@Type='CategoryName']/DetailDescription/Text`),
		func(r *domain.BillingRecord, v string) { r.RateCategoryName = ptrStr(v) }},
	{"Rate_Type_Name", mustPath(`//RatePlan/AdditionalDetails/AdditionalDetail[@Type='Name']/DetailDescription/Text`),
		func(r *domain.BillingRecord, v string) { r.RateTypeName = ptrStr(v) }},
	{"Rate_Type_Code", mustPath(`//RatePlan/@RatePlanCode`),
		func(r *domain.BillingRecord, v string) { r.RateTypeCode = ptrStr(v) }},
	{"Rooms", mustPath(`//RoomStay/RoomRates/RoomRate/@NumberOfUnits`),
		func(r *domain.BillingRecord, v string) { r.Rooms = ptrInt(v) }},

	// Monetary
	{"Revenue_Before_Tax", mustPath(`//ResGlobalInfo/Total/@AmountBeforeTax`),
		func(r *domain.BillingRecord, v string) { r.RevenueBeforeTax = ptrDec(v) }},
	{"Revenue_After_Tax", mustPath(`//ResGlobalInfo/Total/@AmountAfterTax`),
		func(r *domain.BillingRecord, v string) { r.RevenueAfterTax = ptrDec(v) }},
	{"Rate_Inclusive_Tax", mustPath(`//RoomRate/Rates/Rate/Base/@AmountAfterTax`),
		func(r *domain.BillingRecord, v string) { r.RateInclusiveTax = ptrDec(v) }},
	{"Currency", mustPath(`//ResGlobalInfo/Total/@CurrencyCode`),
		func(r *domain.BillingRecord, v string) { r.Currency = ptrStr(v) }},

	// Channel / source attribution
	{"Channel", mustPath(`//TPA_Extensions/Channel`),
		func(r *domain.BillingRecord, v string) { r.Channel = ptrStr(v) }},
	{"Secondary_Source", mustPath(`//TPA_Extensions/SecondarySource`),
		func(r *domain.BillingRecord, v string) { r.SecondarySource = ptrStr(v) }},
	{"Sub_Source", mustPath(`//TPA_Extensions/SubSource`),
		func(r *domain.BillingRecord, v string) { r.SubSource = ptrStr(v) }},
	{"Sub_Source_Code", mustPath(`//TPA_Extensions/SubSource/@Code`),
		func(r *domain.BillingRecord, v string) { r.SubSourceCode = ptrStr(v) }},
	{"Company_Name", mustPath(`//TPA_Extensions/BookingChannel/CompanyName`),
		func(r *domain.BillingRecord, v string) { r.CompanyName = ptrStr(v) }},

	// Travel agency: only the agency profile (ProfileType 4) counts.
	{"Travel_Agency_Name", mustPath(`//Profile[@ProfileType='4']/CompanyInfo/CompanyName`),
		func(r *domain.BillingRecord, v string) { r.TravelAgencyName = ptrStr(v) }},
	{"Travel_Agency_Address1", mustPath(`//Profile[@ProfileType='4']/CompanyInfo/AddressInfo/AddressLine[1]`),
		func(r *domain.BillingRecord, v string) { r.TravelAgencyAddress1 = ptrStr(v) }},
	{"Travel_Agency_Address2", mustPath(`//Profile[@ProfileType='4']/CompanyInfo/AddressInfo/AddressLine[2]`),
		func(r *domain.BillingRecord, v string) { r.TravelAgencyAddress2 = ptrStr(v) }},
	{"Travel_Agency_City", mustPath(`//Profile[@ProfileType='4']/CompanyInfo/AddressInfo/CityName`),
		func(r *domain.BillingRecord, v string) { r.TravelAgencyCity = ptrStr(v) }},
	{"Travel_Agency_State", mustPath(`//Profile[@ProfileType='4']/CompanyInfo/AddressInfo/StateProv`),
		func(r *domain.BillingRecord, v string) { r.TravelAgencyState = ptrStr(v) }},
	{"Travel_Agency_Zip", mustPath(`//Profile[@ProfileType='4']/CompanyInfo/AddressInfo/PostalCode`),
		func(r *domain.BillingRecord, v string) { r.TravelAgencyZip = ptrStr(v) }},
	{"Travel_Agency_Country", mustPath(`//Profile[@ProfileType='4']/CompanyInfo/AddressInfo/CountryName`),
		func(r *domain.BillingRecord, v string) { r.TravelAgencyCountry = ptrStr(v) }},

	// Loyalty
	{"Loyalty_Program", mustPath(`//Customer/CustLoyalty/@ProgramID`),
		func(r *domain.BillingRecord, v string) { r.LoyaltyProgram = ptrStr(v) }},
	{"Loyalty_Number", mustPath(`//Customer/CustLoyalty/@MembershipID`),
		func(r *domain.BillingRecord, v string) { r.LoyaltyNumber = ptrStr(v) }},
	{"Loyalty_Level_Name", mustPath(`//Customer/CustLoyalty/@LoyalLevel`),
		func(r *domain.BillingRecord, v string) { r.LoyaltyLevelName = ptrStr(v) }},
	{"Loyalty_Level_Code", mustPath(`//Customer/CustLoyalty/@LoyalLevelCode`),
		func(r *domain.BillingRecord, v string) { r.LoyaltyLevelCode = ptrStr(v) }},
	{"Loyalty_Type", mustPath(`//Customer/CustLoyalty/@Type`),
		func(r *domain.BillingRecord, v string) { r.LoyaltyType = ptrStr(v) }},

	// Extension fields
	{"Template_Name", mustPath(`//TPA_Extensions/TemplateName`),
		func(r *domain.BillingRecord, v string) { r.TemplateName = ptrStr(v) }},
	{"Shell_Name", mustPath(`//TPA_Extensions/ShellName`),
		func(r *domain.BillingRecord, v string) { r.ShellName = ptrStr(v) }},
	{"Visa_Info", mustPath(`//TPA_Extensions/VisaInfo`),
		func(r *domain.BillingRecord, v string) { r.VisaInfo = ptrStr(v) }},
	{"Room_Upsell_Flag", mustPath(`//TPA_Extensions/RoomUpsell/@Flag`),
		func(r *domain.BillingRecord, v string) { r.RoomUpsellFlag = ptrStr(v) }},
	{"Room_Upsell_Revenue", mustPath(`//TPA_Extensions/RoomUpsell/@Revenue`),
		func(r *domain.BillingRecord, v string) { r.RoomUpsellRevenue = ptrDec(v) }},
	{"Coupon_Code", mustPath(`//TPA_Extensions/CouponCode`),
		func(r *domain.BillingRecord, v string) { r.CouponCode = ptrStr(v) }},
	{"Commission_Percent", mustPath(`//TPA_Extensions/CommissionPercent`),
		func(r *domain.BillingRecord, v string) { r.CommissionPercent = ptrDec(v) }},
}

func mustPath(s string) *xmlpath.Path { return xmlpath.MustCompile(s) }

/********** tiny helpers **********/

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ptrInt(s string) *int {
	n, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	x := int(n.IntPart())
	return &x
}

func ptrDec(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &d
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

/********** extraction **********/

// extractReservationFields runs every rule against the reservation XML
// and fills the matching record fields. A missing node leaves only that
// rule's field nil; an unparseable document leaves every XML-sourced
// field nil. Neither case is an error.
func extractReservationFields(rec *domain.BillingRecord, payload *string) {
	if payload == nil || strings.TrimSpace(*payload) == "" {
		return
	}
	root, err := xmlpath.Parse(strings.NewReader(*payload))
	if err != nil {
		log.Warn().Int64("id", rec.ID).Err(err).Msg("reservation XML unparseable; XML fields left empty")
		return
	}
	for _, rule := range reservationRules {
		if v, ok := rule.path.String(root); ok {
			if s := strings.TrimSpace(v); s != "" {
				rule.assign(rec, s)
			}
		}
	}
}

// AssembleRecord builds one billing record from a raw stored-procedure
// row: relational identity first, then XML extraction, then the derived
// nights/ADR pass.
func AssembleRecord(row domain.BillingRow) domain.BillingRecord {
	rec := domain.BillingRecord{
		ID:            row.ID,
		ChainName:     row.ChainName,
		ChainID:       row.ChainID,
		HotelName:     row.HotelName,
		HotelID:       row.HotelID,
		SAPID:         row.SAPID,
		ConfirmNumber: row.ConfirmNumber,
	}
	extractReservationFields(&rec, row.XML)
	deriveNights(&rec)
	deriveADR(&rec)
	return rec
}
