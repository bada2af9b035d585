package jexpr

import (
	"time"

	"github.com/google/uuid"
)

func timeFunctions() []Function {
	return []Function{
		clockFunction("NOW", "Returns the current time as an RFC 3339 string.", func(t time.Time) Value {
			return NewText(t.Format(time.RFC3339))
		}),
		clockFunction("GET_DATE_YEAR", "Returns the current year.", func(t time.Time) Value {
			return NewNumber(float64(t.Year()))
		}),
		clockFunction("GET_DATE_MONTH", "Returns the current month (1-12).", func(t time.Time) Value {
			return NewNumber(float64(t.Month()))
		}),
		clockFunction("GET_DATE_DAY", "Returns the current day of the month.", func(t time.Time) Value {
			return NewNumber(float64(t.Day()))
		}),
		clockFunction("GET_TIME_HOURS", "Returns the current hour (0-23).", func(t time.Time) Value {
			return NewNumber(float64(t.Hour()))
		}),
		clockFunction("GET_TIME_MINUTES", "Returns the current minute.", func(t time.Time) Value {
			return NewNumber(float64(t.Minute()))
		}),
		clockFunction("GET_TIME_SECONDS", "Returns the current second.", func(t time.Time) Value {
			return NewNumber(float64(t.Second()))
		}),
		withCapabilities(newFunction("UUID", "Returns a random version 4 UUID.", 0, 0,
			func(call *Call, args []Value) (Value, error) {
				id, err := uuid.NewRandomFromReader(call.Random())
				if err != nil {
					return NewNull(), err
				}
				return NewText(id.String()), nil
			}), CapNonDeterministic),
	}
}

func clockFunction(name, description string, f func(time.Time) Value) Function {
	return withCapabilities(newFunction(name, description, 0, 0, func(call *Call, args []Value) (Value, error) {
		return f(call.Now()), nil
	}), CapNonDeterministic)
}
