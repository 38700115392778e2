package mockdata

var businesses = []struct{ business, owner string }{
	{"Quick Fix Auto Nigeria", "Michael Okonkwo"},
	{"Highway Heroes Naija", "Ahmed Bello"},
	{"Reliable Roadside Nigeria", "Chioma Okoro"},
	{"Express Auto Rescue", "Ibrahim Yakubu"},
	{"Fast Track Motors", "Grace Adebayo"},
	{"Road Warriors Nigeria", "Emeka Nwachukwu"},
	{"Swift Auto Solutions", "Fatima Aliyu"},
	{"Metro Mechanics", "Victor Okafor"},
	{"City Car Care", "Amina Hassan"},
	{"Professional Auto Service", "Tunde Adewale"},
}

var phoneNumbers = []string{
	"+234 803 123 4567",
	"+234 805 987 6543",
	"+234 807 456 7890",
	"+234 809 321 6547",
	"+234 810 654 9870",
	"+234 812 789 3456",
	"+234 814 135 7924",
	"+234 816 246 8135",
	"+234 818 357 9246",
	"+234 820 468 0357",
}

var profileImages = []string{
	"https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=400&h=400&fit=crop&crop=face",
	"https://images.unsplash.com/photo-1531123897727-8f129e1688ce?w=400&h=400&fit=crop&crop=face",
	"https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=400&h=400&fit=crop&crop=face",
	"https://images.unsplash.com/photo-1494790108755-2616b612b524?w=400&h=400&fit=crop&crop=face",
	"https://images.unsplash.com/photo-1570295999919-56ceb5ecca61?w=400&h=400&fit=crop&crop=face",
	"https://images.unsplash.com/photo-1506794778202-cad84cf45f1d?w=400&h=400&fit=crop&crop=face",
	"https://images.unsplash.com/photo-1500648767791-00dcc994a43e?w=400&h=400&fit=crop&crop=face",
	"https://images.unsplash.com/photo-1508214751196-bcfd4ca60f91?w=400&h=400&fit=crop&crop=face",
	"https://images.unsplash.com/photo-1529626455594-4ff0802cfb7e?w=400&h=400&fit=crop&crop=face",
	"https://images.unsplash.com/photo-1523824921871-d6f1a15151f1?w=400&h=400&fit=crop&crop=face",
}

var streets = []string{
	"Herbert Macaulay Way", "Ahmadu Bello Way", "Adeola Odeku Street", "Allen Avenue",
	"Ikorodu Road", "Lagos-Ibadan Expressway", "Airport Road", "Ring Road",
	"Independence Avenue", "Constitution Avenue", "Kaduna Street", "Kano Street",
	"Port Harcourt Road", "Enugu Road", "Calabar Street", "Jos Street",
}

var areas = []string{
	"Victoria Island", "Ikoyi", "Maryland", "Ikeja", "Surulere", "Yaba",
	"Garki", "Wuse", "Maitama", "Utako", "Gwarinpa", "Kubwa",
	"GRA", "Trans Amadi", "Old GRA", "Mile 3", "Rumuola", "Eliozu",
}

var states = []string{"Lagos", "Abuja", "Port Harcourt", "Kano", "Ibadan"}

var experiences = []string{"over 10 years", "more than 15 years", "8+ years", "over 12 years"}

var specialties = []string{
	"emergency roadside assistance",
	"vehicle diagnostics and repair",
	"automotive electrical systems",
	"engine repair and maintenance",
	"brake and suspension services",
}
