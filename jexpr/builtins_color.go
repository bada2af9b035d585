package jexpr

import "math"

func colorFunctions() []Function {
	return []Function{
		newFunction("RGB_COLOR", "Creates a color from red, green, blue and optional alpha channels (0-255).", 3, 4,
			func(call *Call, args []Value) (Value, error) {
				c, err := ToColor(NewList(args...))
				if err != nil {
					return NewNull(), err
				}
				return NewColor(c), nil
			}),
		newFunction("HSB_COLOR", "Creates a color from hue (degrees), saturation and brightness (0-1).", 3, 3,
			func(call *Call, args []Value) (Value, error) {
				xs, err := numbers(args)
				if err != nil {
					return NewNull(), err
				}
				return NewColor(hsbToColor(xs[0], xs[1], xs[2])), nil
			}),
		newFunction("HEX_TO_RGB", "Converts a hex color string to a list [r, g, b].", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				c, err := ToColor(NewText(textArg(args, 0)))
				if err != nil {
					return NewNull(), err
				}
				return numberList([]float64{float64(c.R), float64(c.G), float64(c.B)}), nil
			}),
		newFunction("RGB_TO_HEX", "Converts a color to its hex string.", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				c, err := ToColor(args[0])
				if err != nil {
					return NewNull(), err
				}
				return NewText(formatColor(c)), nil
			}),
		newFunction("RGB_TO_HSB", "Converts a color to a list [hue (degrees), saturation, brightness].", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				c, err := ToColor(args[0])
				if err != nil {
					return NewNull(), err
				}
				h, s, b := colorToHSB(c)
				return numberList([]float64{h, s, b}), nil
			}),
		newFunction("COLOR_CHANNELS", "Returns the channels of a color as [r, g, b, a].", 1, 1,
			func(call *Call, args []Value) (Value, error) {
				c, err := ToColor(args[0])
				if err != nil {
					return NewNull(), err
				}
				return numberList([]float64{float64(c.R), float64(c.G), float64(c.B), float64(c.A)}), nil
			}),
	}
}

func hsbToColor(hue, saturation, brightness float64) Color {
	saturation = math.Max(0, math.Min(1, saturation))
	brightness = math.Max(0, math.Min(1, brightness))
	h := math.Mod(hue, 360)
	if h < 0 {
		h += 360
	}
	chroma := brightness * saturation
	x := chroma * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := brightness - chroma

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = chroma, x, 0
	case h < 120:
		r, g, b = x, chroma, 0
	case h < 180:
		r, g, b = 0, chroma, x
	case h < 240:
		r, g, b = 0, x, chroma
	case h < 300:
		r, g, b = x, 0, chroma
	default:
		r, g, b = chroma, 0, x
	}
	return Color{
		R: clampChannel((r + m) * 255),
		G: clampChannel((g + m) * 255),
		B: clampChannel((b + m) * 255),
		A: 255,
	}
}

func colorToHSB(c Color) (float64, float64, float64) {
	r, g, b := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	delta := maxC - minC

	var hue float64
	switch {
	case delta == 0:
		hue = 0
	case maxC == r:
		hue = 60 * math.Mod((g-b)/delta, 6)
	case maxC == g:
		hue = 60 * ((b-r)/delta + 2)
	default:
		hue = 60 * ((r-g)/delta + 4)
	}
	if hue < 0 {
		hue += 360
	}

	saturation := 0.0
	if maxC > 0 {
		saturation = delta / maxC
	}
	return hue, saturation, maxC
}
