package admin

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bluescreen10/storefront/apiclient"
	"github.com/tealeg/xlsx"
)

// XLSXContentType is the media type of the exported spreadsheets.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var orderHeaders = []string{
	"ID", "CustomerName", "CustomerEmail", "Products", "Quantity",
	"Amount", "PaymentStatus", "TransactionID", "CreatedAt",
}

var productHeaders = []string{
	"ID", "Title", "Synopsis", "Authors", "Year", "Price", "Category", "CoverImage", "PDFURL",
}

// WriteOrdersXLSX writes orders as a single sheet spreadsheet.
func WriteOrdersXLSX(w io.Writer, orders []apiclient.Order) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	addHeader(sheet, orderHeaders)

	for _, o := range orders {
		titles := make([]string, 0, len(o.Products))
		qty := 0
		for _, line := range o.Products {
			title := line.Title
			if title == "" {
				title = line.ProductID
			}
			titles = append(titles, title)
			qty += line.Quantity
		}

		row := sheet.AddRow()
		row.AddCell().SetString(o.ID)
		row.AddCell().SetString(o.Customer.Name)
		row.AddCell().SetString(o.Customer.Email)
		row.AddCell().SetString(strings.Join(titles, ", "))
		row.AddCell().SetInt(qty)
		row.AddCell().SetFloat(o.Amount)
		row.AddCell().SetString(o.PaymentStatus)
		row.AddCell().SetString(o.PayphoneTransactionID)
		row.AddCell().SetString(formatTime(o.CreatedAt))
	}

	return file.Write(w)
}

// WriteProductsXLSX writes products in the layout ReadProductsXLSX reads.
func WriteProductsXLSX(w io.Writer, products []apiclient.Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	addHeader(sheet, productHeaders)

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ID)
		row.AddCell().SetString(p.Title)
		row.AddCell().SetString(p.Description)
		row.AddCell().SetString(p.Authors)
		row.AddCell().SetInt(p.Year)
		row.AddCell().SetFloat(p.Price)
		row.AddCell().SetString(p.Category)
		row.AddCell().SetString(p.Image)
		row.AddCell().SetString(p.PDFURL)
	}

	return file.Write(w)
}

// ImportRow is one product read from a spreadsheet. ID is empty for
// products to be created.
type ImportRow struct {
	Line  int
	ID    string
	Input apiclient.ProductInput
}

// ImportResult lists the usable rows and the rows that were skipped with
// the reason.
type ImportResult struct {
	Rows    []ImportRow
	Skipped map[int]string
}

// ReadProductsXLSX reads the first sheet of a spreadsheet written by
// WriteProductsXLSX (or edited by hand in the same layout). The first row
// is the header. Rows that fail to parse or validate are skipped and
// reported by spreadsheet line number.
func ReadProductsXLSX(r io.ReaderAt, size int64) (ImportResult, error) {
	file, err := xlsx.OpenReaderAt(r, size)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to parse spreadsheet: %w", err)
	}

	if len(file.Sheets) == 0 || file.Sheets[0].MaxRow < 2 {
		return ImportResult{}, fmt.Errorf("spreadsheet is empty or missing header row")
	}

	res := ImportResult{Skipped: map[int]string{}}
	sheet := file.Sheets[0]

	for i := 1; i < sheet.MaxRow; i++ {
		row := sheet.Rows[i]
		line := i + 1

		get := func(index int) string {
			if row != nil && index < len(row.Cells) {
				return strings.TrimSpace(row.Cells[index].String())
			}
			return ""
		}

		if get(1) == "" {
			res.Skipped[line] = "missing title"
			continue
		}

		year, err := strconv.Atoi(get(4))
		if err != nil {
			res.Skipped[line] = "invalid year '" + get(4) + "'"
			continue
		}

		price, err := strconv.ParseFloat(get(5), 64)
		if err != nil {
			res.Skipped[line] = "invalid price '" + get(5) + "'"
			continue
		}

		in := apiclient.ProductInput{
			Title:      get(1),
			Synopsis:   get(2),
			Authors:    get(3),
			Year:       year,
			Price:      price,
			Category:   get(6),
			CoverImage: get(7),
			PDFURL:     get(8),
		}

		if err := ValidateProduct(in); err != nil {
			res.Skipped[line] = err.Error()
			continue
		}

		res.Rows = append(res.Rows, ImportRow{Line: line, ID: get(0), Input: in})
	}

	return res, nil
}

func addHeader(sheet *xlsx.Sheet, headers []string) {
	row := sheet.AddRow()
	for _, h := range headers {
		row.AddCell().SetString(h)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateTime)
}
