// Package schedule codifica y decodifica el cronograma de parcelas ("tuplas")
// embebido en cada contrato: una lista textual de tuplas de 7 campos
//
//	(valor_pago, 'dd-mm-aaaa', empresa, banco, numero_parcela, juros, amortizacao)
//
// El decodificador es tolerante por contrato: ante entrada malformada devuelve
// una secuencia vacía y nunca un error, así los llamadores no tratan casos
// especiales. Es un parser dedicado a esta gramática fija; jamás se evalúa el
// texto almacenado con un intérprete genérico de expresiones.
package schedule

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout es el formato de fecha del formato de alambre (dd-mm-aaaa).
const DateLayout = "02-01-2006"

// Entry es una parcela del cronograma. Solo AmountPaid, Date y Company son
// determinantes para agrupación y filtrado; Interest se guarda pero el interés
// efectivo siempre se deriva como AmountPaid − Amortization.
type Entry struct {
	AmountPaid   decimal.Decimal
	Date         time.Time
	Company      string
	Bank         string
	Number       int
	Interest     decimal.Decimal
	Amortization decimal.Decimal
}

// DerivedInterest devuelve el interés derivado: valor pago menos amortización.
func (e Entry) DerivedInterest() decimal.Decimal {
	return e.AmountPaid.Sub(e.Amortization)
}

var quoteNormalizer = strings.NewReplacer(
	"“", `"`, // “
	"”", `"`, // ”
	"‘", "'", // ‘
	"’", "'", // ’
)

// Decode convierte el texto almacenado en la secuencia de parcelas.
// Entrada vacía, el literal "nan", texto que no es una lista o una tupla
// truncada producen una secuencia vacía (nunca error). Una tupla con campos
// numéricos o fecha ilegibles se omite individualmente sin abortar el resto.
func Decode(raw string) []Entry {
	s := strings.TrimSpace(quoteNormalizer.Replace(raw))
	if s == "" || strings.EqualFold(s, "nan") {
		return nil
	}
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil
	}
	tuples, ok := parseTuples(s[1 : len(s)-1])
	if !ok {
		return nil
	}
	entries := make([]Entry, 0, len(tuples))
	for _, fields := range tuples {
		// Una tupla con aridad incorrecta está truncada: invalida toda la
		// secuencia, igual que cualquier otra malformación estructural.
		if len(fields) != 6 && len(fields) != 7 {
			return nil
		}
		if e, ok := buildEntry(fields); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// Encode produce la forma textual canónica. Decode(Encode(x)) == x para toda
// secuencia bien formada x.
func Encode(entries []Entry) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		b.WriteString(e.AmountPaid.String())
		b.WriteString(", '")
		b.WriteString(e.Date.Format(DateLayout))
		b.WriteString("', '")
		b.WriteString(e.Company)
		b.WriteString("', '")
		b.WriteString(e.Bank)
		b.WriteString("', ")
		b.WriteString(strconv.Itoa(e.Number))
		b.WriteString(", ")
		b.WriteString(e.Interest.String())
		b.WriteString(", ")
		b.WriteString(e.Amortization.String())
		b.WriteByte(')')
	}
	b.WriteByte(']')
	return b.String()
}

// parseTuples recorre el interior de la lista y extrae los campos crudos de
// cada tupla. Devuelve ok=false ante cualquier malformación estructural
// (paréntesis sin cerrar, comilla sin cerrar, texto suelto entre tuplas).
func parseTuples(s string) ([][]string, bool) {
	var tuples [][]string
	i := 0
	for i < len(s) {
		switch c := s[i]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',':
			i++
		case c == '(':
			fields, next, ok := parseTuple(s, i+1)
			if !ok {
				return nil, false
			}
			tuples = append(tuples, fields)
			i = next
		default:
			return nil, false
		}
	}
	return tuples, true
}

// parseTuple lee campos separados por coma hasta el ')' de cierre.
// Cada campo es o bien un string entre comillas (simples o dobles) o un token
// desnudo. Devuelve la posición siguiente al cierre.
func parseTuple(s string, i int) (fields []string, next int, ok bool) {
	for {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
			i++
		}
		if i >= len(s) {
			return nil, 0, false // tupla truncada
		}
		switch c := s[i]; c {
		case ')':
			return fields, i + 1, true
		case ',':
			i++
		case '\'', '"':
			val, end, qok := parseQuoted(s, i)
			if !qok {
				return nil, 0, false
			}
			fields = append(fields, val)
			i = end
		default:
			start := i
			for i < len(s) && s[i] != ',' && s[i] != ')' {
				i++
			}
			fields = append(fields, strings.TrimSpace(s[start:i]))
		}
	}
}

// parseQuoted lee un string delimitado por la comilla en s[i].
func parseQuoted(s string, i int) (val string, next int, ok bool) {
	quote := s[i]
	j := i + 1
	for j < len(s) && s[j] != quote {
		j++
	}
	if j >= len(s) {
		return "", 0, false // comilla sin cerrar
	}
	return s[i+1 : j], j + 1, true
}

// buildEntry interpreta los campos crudos de una tupla de 6 o 7 campos:
// la amortización (campo 7) puede faltar y vale 0. Si el monto, la fecha o la
// amortización no se pueden interpretar, la tupla se descarta individualmente.
func buildEntry(fields []string) (Entry, bool) {
	amount, err := decimal.NewFromString(fields[0])
	if err != nil {
		return Entry{}, false
	}
	date, err := time.Parse(DateLayout, fields[1])
	if err != nil {
		return Entry{}, false
	}
	e := Entry{
		AmountPaid: amount,
		Date:       date,
		Company:    fields[2],
		Bank:       fields[3],
	}
	if n, err := strconv.Atoi(fields[4]); err == nil {
		e.Number = n
	} else if d, derr := decimal.NewFromString(fields[4]); derr == nil {
		e.Number = int(d.IntPart())
	}
	if d, err := decimal.NewFromString(fields[5]); err == nil {
		e.Interest = d
	}
	if len(fields) == 7 {
		d, err := decimal.NewFromString(fields[6])
		if err != nil {
			return Entry{}, false
		}
		e.Amortization = d
	}
	return e, true
}
