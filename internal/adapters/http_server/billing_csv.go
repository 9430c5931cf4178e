// internal/adapters/http_server/billing_csv.go
package httpserver

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"billingfile/internal/domain"
)

// billingColumns fixes the CSV column order. Header names follow the JSON
// field names so both export formats stay interchangeable downstream.
var billingColumns = []struct {
	name  string
	value func(*domain.BillingRecord) string
}{
	{"ID", func(r *domain.BillingRecord) string { return strconv.FormatInt(r.ID, 10) }},
	{"Chain_Name", func(r *domain.BillingRecord) string { return csvStr(r.ChainName) }},
	{"Chain_ID", func(r *domain.BillingRecord) string { return csvInt64(r.ChainID) }},
	{"Hotel_Name", func(r *domain.BillingRecord) string { return csvStr(r.HotelName) }},
	{"Hotel_ID", func(r *domain.BillingRecord) string { return csvInt64(r.HotelID) }},
	{"SAP_ID", func(r *domain.BillingRecord) string { return csvInt64(r.SAPID) }},
	{"Confirm_Number", func(r *domain.BillingRecord) string { return csvStr(r.ConfirmNumber) }},
	{"Confirm_Date", func(r *domain.BillingRecord) string { return csvStr(r.ConfirmDate) }},
	{"Cancel_Number", func(r *domain.BillingRecord) string { return csvStr(r.CancelNumber) }},
	{"Cancel_Date", func(r *domain.BillingRecord) string { return csvStr(r.CancelDate) }},
	{"Reinstate_Date", func(r *domain.BillingRecord) string { return csvStr(r.ReinstateDate) }},
	{"Status", func(r *domain.BillingRecord) string { return csvStr(r.Status) }},
	{"Salutation", func(r *domain.BillingRecord) string { return csvStr(r.Salutation) }},
	{"Guest_First_Name", func(r *domain.BillingRecord) string { return csvStr(r.GuestFirstName) }},
	{"Guest_Last_Name", func(r *domain.BillingRecord) string { return csvStr(r.GuestLastName) }},
	{"Guest_Country", func(r *domain.BillingRecord) string { return csvStr(r.GuestCountry) }},
	{"Arrival_Date", func(r *domain.BillingRecord) string { return csvStr(r.ArrivalDate) }},
	{"Departure_Date", func(r *domain.BillingRecord) string { return csvStr(r.DepartureDate) }},
	{"Nights", func(r *domain.BillingRecord) string { return csvInt(r.Nights) }},
	{"Room_Type_Name", func(r *domain.BillingRecord) string { return csvStr(r.RoomTypeName) }},
	{"Room_Type_Code", func(r *domain.BillingRecord) string { return csvStr(r.RoomTypeCode) }},
	{"Rate_Category_Name", func(r *domain.BillingRecord) string { return csvStr(r.RateCategoryName) }},
	{"Rate_Type_Name", func(r *domain.BillingRecord) string { return csvStr(r.RateTypeName) }},
	{"Rate_Type_Code", func(r *domain.BillingRecord) string { return csvStr(r.RateTypeCode) }},
	{"Rooms", func(r *domain.BillingRecord) string { return csvInt(r.Rooms) }},
	{"Revenue_Before_Tax", func(r *domain.BillingRecord) string { return csvDec(r.RevenueBeforeTax) }},
	{"Revenue_After_Tax", func(r *domain.BillingRecord) string { return csvDec(r.RevenueAfterTax) }},
	{"Rate_Inclusive_Tax", func(r *domain.BillingRecord) string { return csvDec(r.RateInclusiveTax) }},
	{"ADR", func(r *domain.BillingRecord) string { return csvDec(r.ADR) }},
	{"Currency", func(r *domain.BillingRecord) string { return csvStr(r.Currency) }},
	{"Channel", func(r *domain.BillingRecord) string { return csvStr(r.Channel) }},
	{"Secondary_Source", func(r *domain.BillingRecord) string { return csvStr(r.SecondarySource) }},
	{"Sub_Source", func(r *domain.BillingRecord) string { return csvStr(r.SubSource) }},
	{"Sub_Source_Code", func(r *domain.BillingRecord) string { return csvStr(r.SubSourceCode) }},
	{"Company_Name", func(r *domain.BillingRecord) string { return csvStr(r.CompanyName) }},
	{"Travel_Agency_Name", func(r *domain.BillingRecord) string { return csvStr(r.TravelAgencyName) }},
	{"Travel_Agency_Address1", func(r *domain.BillingRecord) string { return csvStr(r.TravelAgencyAddress1) }},
	{"Travel_Agency_Address2", func(r *domain.BillingRecord) string { return csvStr(r.TravelAgencyAddress2) }},
	{"Travel_Agency_City", func(r *domain.BillingRecord) string { return csvStr(r.TravelAgencyCity) }},
	{"Travel_Agency_State", func(r *domain.BillingRecord) string { return csvStr(r.TravelAgencyState) }},
	{"Travel_Agency_Zip", func(r *domain.BillingRecord) string { return csvStr(r.TravelAgencyZip) }},
	{"Travel_Agency_Country", func(r *domain.BillingRecord) string { return csvStr(r.TravelAgencyCountry) }},
	{"Loyalty_Program", func(r *domain.BillingRecord) string { return csvStr(r.LoyaltyProgram) }},
	{"Loyalty_Number", func(r *domain.BillingRecord) string { return csvStr(r.LoyaltyNumber) }},
	{"Loyalty_Level_Name", func(r *domain.BillingRecord) string { return csvStr(r.LoyaltyLevelName) }},
	{"Loyalty_Level_Code", func(r *domain.BillingRecord) string { return csvStr(r.LoyaltyLevelCode) }},
	{"Loyalty_Type", func(r *domain.BillingRecord) string { return csvStr(r.LoyaltyType) }},
	{"Template_Name", func(r *domain.BillingRecord) string { return csvStr(r.TemplateName) }},
	{"Shell_Name", func(r *domain.BillingRecord) string { return csvStr(r.ShellName) }},
	{"Visa_Info", func(r *domain.BillingRecord) string { return csvStr(r.VisaInfo) }},
	{"Room_Upsell_Flag", func(r *domain.BillingRecord) string { return csvStr(r.RoomUpsellFlag) }},
	{"Room_Upsell_Revenue", func(r *domain.BillingRecord) string { return csvDec(r.RoomUpsellRevenue) }},
	{"Coupon_Code", func(r *domain.BillingRecord) string { return csvStr(r.CouponCode) }},
	{"Commission_Percent", func(r *domain.BillingRecord) string { return csvDec(r.CommissionPercent) }},
	{"Itinerary_Number", func(r *domain.BillingRecord) string { return csvStr(r.ItineraryNumber) }},
	{"Channel_Connect_Confirm_Number", func(r *domain.BillingRecord) string { return csvStr(r.ChannelConnectConfirmNumber) }},
}

// WriteBillingCSV streams records as RFC 4180 CSV with a header row.
func WriteBillingCSV(w io.Writer, recs []domain.BillingRecord) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(billingColumns))
	for i, c := range billingColumns {
		header[i] = c.name
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(billingColumns))
	for i := range recs {
		for j, c := range billingColumns {
			row[j] = c.value(&recs[i])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func csvInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func csvInt64(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}

func csvDec(p *decimal.Decimal) string {
	if p == nil {
		return ""
	}
	return p.StringFixed(2)
}
