package wisdom

// Theme is one visual style of the quote image.
type Theme struct {
	Name        string
	Description string
	Primary     [4]string
	Accent      [4]string
	Highlights  [4]string
	Shadows     [4]string
}

var themes = []Theme{
	{
		Name:        "Zen Bathroom Sanctuary",
		Description: "Minimalist spa-like bathroom with soft lighting and clean lines",
		Primary:     [4]string{"#F8F9FA", "#E9ECEF", "#DEE2E6", "#CED4DA"},
		Accent:      [4]string{"#6C757D", "#495057", "#343A40", "#212529"},
		Highlights:  [4]string{"#FFFFFF", "#F1F3F4", "#E8F0FE", "#FFF8E1"},
		Shadows:     [4]string{"#ADB5BD", "#868E96", "#6C757D", "#495057"},
	},
	{
		Name:        "Luxury Marble Spa",
		Description: "Sophisticated marble textures with gold accents and soft ambient lighting",
		Primary:     [4]string{"#FAFAFA", "#F5F5F5", "#EEEEEE", "#E0E0E0"},
		Accent:      [4]string{"#D4AF37", "#B8860B", "#DAA520", "#FFD700"},
		Highlights:  [4]string{"#FFFFFF", "#FFFEF7", "#FFF9C4", "#FFECB3"},
		Shadows:     [4]string{"#BDBDBD", "#9E9E9E", "#757575", "#616161"},
	},
	{
		Name:        "Modern Minimalist Retreat",
		Description: "Clean geometric shapes with soft pastels and natural light",
		Primary:     [4]string{"#FEFEFE", "#F7F7F7", "#F0F0F0", "#E8E8E8"},
		Accent:      [4]string{"#81C784", "#66BB6A", "#4CAF50", "#388E3C"},
		Highlights:  [4]string{"#FFFFFF", "#F1F8E9", "#DCEDC8", "#C8E6C9"},
		Shadows:     [4]string{"#C5C5C5", "#A8A8A8", "#8A8A8A", "#6D6D6D"},
	},
	{
		Name:        "Serene Water Elements",
		Description: "Flowing water patterns with soft blues and whites",
		Primary:     [4]string{"#F3F8FF", "#E3F2FD", "#BBDEFB", "#90CAF9"},
		Accent:      [4]string{"#2196F3", "#1976D2", "#1565C0", "#0D47A1"},
		Highlights:  [4]string{"#FFFFFF", "#F8FDFF", "#E8F4FD", "#D1E7DD"},
		Shadows:     [4]string{"#B0BEC5", "#90A4AE", "#78909C", "#607D8B"},
	},
	{
		Name:        "Warm Comfort Zone",
		Description: "Cozy warm tones with soft textures and gentle lighting",
		Primary:     [4]string{"#FFF8E1", "#FFECB3", "#FFE082", "#FFD54F"},
		Accent:      [4]string{"#FF8F00", "#FF6F00", "#E65100", "#BF360C"},
		Highlights:  [4]string{"#FFFDE7", "#FFF9C4", "#FFF176", "#FFEB3B"},
		Shadows:     [4]string{"#BCAAA4", "#A1887F", "#8D6E63", "#6D4C41"},
	},
	{
		Name:        "Fresh Clean Vibes",
		Description: "Crisp whites with subtle mint and eucalyptus accents",
		Primary:     [4]string{"#FFFFFF", "#F9F9F9", "#F0F4F8", "#E1E8ED"},
		Accent:      [4]string{"#26A69A", "#00897B", "#00695C", "#004D40"},
		Highlights:  [4]string{"#FFFFFF", "#F0FFF0", "#E8F5E8", "#DCEDC8"},
		Shadows:     [4]string{"#B0BEC5", "#90A4AE", "#78909C", "#546E7A"},
	},
}

// Themes returns the fixed palette.
func Themes() []Theme {
	return append([]Theme(nil), themes...)
}
