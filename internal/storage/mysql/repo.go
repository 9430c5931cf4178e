package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"billingfile/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func ptrNullStr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}

func ptrNullInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func ptrNullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func (r *Repo) GetBillingReservations(ctx context.Context, from, to time.Time) ([]domain.BillingRow, error) {
	rows, err := r.db.QueryContext(ctx, getBillingReservationsSQL,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BillingRow
	for rows.Next() {
		var br domain.BillingRow
		var (
			chainName, hotelName, confirm, xml sql.NullString
			chainID, hotelID, sapID            sql.NullInt64
		)
		if err := rows.Scan(
			&br.ID,
			&chainName,
			&chainID,
			&hotelName,
			&hotelID,
			&sapID,
			&confirm,
			&xml,
		); err != nil {
			return nil, err
		}
		br.ChainName = ptrNullStr(chainName)
		br.ChainID = ptrNullInt64(chainID)
		br.HotelName = ptrNullStr(hotelName)
		br.HotelID = ptrNullInt64(hotelID)
		br.SAPID = ptrNullInt64(sapID)
		br.ConfirmNumber = ptrNullStr(confirm)
		br.XML = ptrNullStr(xml)
		out = append(out, br)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) ListHotelCurrencies(ctx context.Context) ([]domain.HotelCurrency, error) {
	rows, err := r.db.QueryContext(ctx, listHotelCurrenciesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.HotelCurrency
	for rows.Next() {
		var hc domain.HotelCurrency
		if err := rows.Scan(&hc.HotelID, &hc.Enabled, &hc.Currency); err != nil {
			return nil, err
		}
		out = append(out, hc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) TruncateHotelCurrencies(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, truncateHotelCurrenciesSQL)
	return err
}

func (r *Repo) InsertHotelCurrencies(ctx context.Context, batch []domain.HotelCurrency) error {
	if len(batch) == 0 {
		return nil
	}
	values := make([]string, 0, len(batch))
	args := make([]any, 0, len(batch)*3)
	for _, hc := range batch {
		values = append(values, "(?,?,?)")
		args = append(args, hc.HotelID, hc.Enabled, hc.Currency)
	}
	sqlStr := insertHotelCurrenciesPrefix + strings.Join(values, ",") + insertHotelCurrenciesOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func scanHotel(sc interface{ Scan(...any) error }) (domain.Hotel, error) {
	var h domain.Hotel
	var (
		trustCode, cityCode, bookingURL, trustYouID sql.NullString
		isEnterprise                                sql.NullBool
	)
	if err := sc.Scan(
		&h.ID,
		&trustCode,
		&h.Name,
		&h.CountryCode,
		&cityCode,
		&h.ChainID,
		&bookingURL,
		&isEnterprise,
		&trustYouID,
		&h.Active,
	); err != nil {
		return domain.Hotel{}, err
	}
	h.TrustCode = ptrNullStr(trustCode)
	h.CityCode = ptrNullStr(cityCode)
	h.BookingURL = ptrNullStr(bookingURL)
	if isEnterprise.Valid {
		b := isEnterprise.Bool
		h.IsEnterprise = &b
	}
	h.TrustYouID = ptrNullStr(trustYouID)
	return h, nil
}

func (r *Repo) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx, getHotelSQL, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Hotel{}, domain.ErrNotFound
		}
		return domain.Hotel{}, err
	}
	return h, nil
}

func (r *Repo) ListHotels(ctx context.Context, q domain.HotelsQuery) ([]domain.Hotel, error) {
	var (
		where []string
		args  []any
	)
	if q.Country != nil {
		where = append(where, "country_code = ?")
		args = append(args, *q.Country)
	}
	if q.Active != nil {
		where = append(where, "active = ?")
		args = append(args, *q.Active)
	}
	sqlStr := listHotelsSQL
	if len(where) > 0 {
		sqlStr += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	sqlStr += "ORDER BY id\nLIMIT ?"
	args = append(args, q.Limit)

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Hotel
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanReservation(sc interface{ Scan(...any) error }) (domain.Reservation, error) {
	var rv domain.Reservation
	var (
		chainName, hotelName, hotelCode, status, confirm sql.NullString
		guestFirst, guestLast, arrival, departure        sql.NullString
		roomType, revenue, currency, channel, subSource  sql.NullString
		chainID, hotelID, nights, rooms                  sql.NullInt64
	)
	if err := sc.Scan(
		&rv.ID,
		&chainName,
		&chainID,
		&hotelName,
		&hotelID,
		&hotelCode,
		&status,
		&confirm,
		&guestFirst,
		&guestLast,
		&arrival,
		&departure,
		&nights,
		&roomType,
		&rooms,
		&revenue,
		&currency,
		&channel,
		&subSource,
	); err != nil {
		return domain.Reservation{}, err
	}
	rv.ChainName = ptrNullStr(chainName)
	rv.ChainID = ptrNullInt64(chainID)
	rv.HotelName = ptrNullStr(hotelName)
	rv.HotelID = ptrNullInt64(hotelID)
	rv.HotelCode = ptrNullStr(hotelCode)
	rv.Status = ptrNullStr(status)
	rv.ConfirmNumber = ptrNullStr(confirm)
	rv.GuestFirst = ptrNullStr(guestFirst)
	rv.GuestLast = ptrNullStr(guestLast)
	rv.ArrivalDate = ptrNullStr(arrival)
	rv.DepartureDate = ptrNullStr(departure)
	rv.Nights = ptrNullInt(nights)
	rv.RoomTypeName = ptrNullStr(roomType)
	rv.Rooms = ptrNullInt(rooms)
	rv.Revenue = ptrNullStr(revenue)
	rv.Currency = ptrNullStr(currency)
	rv.Channel = ptrNullStr(channel)
	rv.SubSource = ptrNullStr(subSource)
	return rv, nil
}

func (r *Repo) GetReservationByConfirm(ctx context.Context, confirmNumber string) (domain.Reservation, error) {
	rv, err := scanReservation(r.db.QueryRowContext(ctx, getReservationByConfirmSQL, confirmNumber))
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Reservation{}, domain.ErrNotFound
		}
		return domain.Reservation{}, err
	}
	return rv, nil
}

func (r *Repo) ListReservations(ctx context.Context, q domain.ReservationsQuery) ([]domain.Reservation, error) {
	var (
		where []string
		args  []any
	)
	if q.HotelID != nil {
		where = append(where, "hotel_id = ?")
		args = append(args, *q.HotelID)
	}
	if q.Status != nil {
		where = append(where, "status = ?")
		args = append(args, *q.Status)
	}
	sqlStr := listReservationsSQL
	if len(where) > 0 {
		sqlStr += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	sqlStr += "ORDER BY id DESC\nLIMIT ?"
	args = append(args, q.Limit)

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		rv, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
