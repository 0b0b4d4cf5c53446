package heuristics

var states = newWordList(
	"Tamil Nadu", "Tamilnadu", "Kerala", "Karnataka",
	"Andhra Pradesh", "Telangana", "Maharashtra", "Delhi",
)

var districts = newWordList(
	"ariyalur", "chengalpattu", "chennai", "coimbatore", "cuddalore",
	"dharmapuri", "dindigul", "erode", "kallakurichi", "kancheepuram",
	"karur", "krishnagiri", "madurai", "mayiladuthurai", "nagapattinam",
	"namakkal", "nilgiris", "the nilgiris", "perambalur", "pudukkottai",
	"ramanathapuram", "ranipet", "salem", "sivagangai", "tenkasi",
	"thanjavur", "theni", "thiruvallur", "thiruvarur",
	"thoothukudi", "tuticorin",
	"tiruchirappalli", "trichy",
	"tirunelveli", "tirupathur", "tiruppur", "tiruvannamalai", "vellore",
	"viluppuram", "virudhunagar", "kanyakumari",
)

// State returns the first listed state mentioned anywhere in text
func State(text string) string { return states.first(text) }

// District returns the first listed district or city alias mentioned anywhere in text
func District(text string) string { return districts.first(text) }
