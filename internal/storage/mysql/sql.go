package mysql

// The billing extract lives behind a stored procedure so the reporting
// team can tune the join without a redeploy.
const getBillingReservationsSQL = `CALL GetBillingFileReservations(?, ?)`

const listHotelCurrenciesSQL = `
SELECT hotel_id, enabled, currency
FROM HotelBillingCurrency
ORDER BY hotel_id
`

const truncateHotelCurrenciesSQL = `TRUNCATE TABLE HotelBillingCurrency`

const insertHotelCurrenciesPrefix = "INSERT INTO HotelBillingCurrency\n  (hotel_id, enabled, currency)\nVALUES "

// Last row in the file wins when a hotel appears twice.
const insertHotelCurrenciesOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  enabled  = VALUES(enabled),\n" +
	"  currency = VALUES(currency)\n"

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getHotelSQL = `
SELECT
  id,
  trust_code,
  name,
  country_code,
  city_code,
  chain_id,
  booking_url,
  is_enterprise,
  trustyou_id,
  active
FROM Hotel
WHERE id = ?
`

const listHotelsSQL = `
SELECT
  id,
  trust_code,
  name,
  country_code,
  city_code,
  chain_id,
  booking_url,
  is_enterprise,
  trustyou_id,
  active
FROM Hotel
`

const reservationColumns = `
  id,
  chain_name,
  chain_id,
  hotel_name,
  hotel_id,
  hotel_code,
  status,
  confirm_number,
  guest_first_name,
  guest_last_name,
  arrival_date,
  departure_date,
  nights,
  room_type_name,
  rooms,
  revenue,
  currency,
  channel,
  sub_source
`

const getReservationByConfirmSQL = `
SELECT` + reservationColumns + `
FROM FullReservation
WHERE confirm_number = ?
ORDER BY id DESC
LIMIT 1
`

const listReservationsSQL = `
SELECT` + reservationColumns + `
FROM FullReservation
`
