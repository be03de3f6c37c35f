package achievement

import "github.com/poorspot/spotd/models"

// Spot categories recognized by the rules. Matching is case-sensitive.
const (
	CategoryTourisme  = "Tourisme"
	CategoryBusiness  = "Business"
	CategoryNightlife = "Nightlife"
	CategoryShopping  = "Shopping"
	CategoryTransport = "Transport"
	CategoryCulture   = "Culture"
	CategoryMarket    = "Market"
	CategoryEvent     = "Event"
	CategoryNature    = "Nature"
	CategoryParc      = "Parc"
)

// coreCategories must all be visited for jack_of_all.
var coreCategories = []string{
	CategoryTourisme,
	CategoryBusiness,
	CategoryNightlife,
	CategoryShopping,
	CategoryTransport,
	CategoryCulture,
}

var defaultCatalog = []models.AchievementDefinition{
	{ID: "welcome", Name: "Bienvenue", Desc: "Rejoindre la communauté", Points: 5, Icon: "waving_hand"},
	{ID: "first_step", Name: "Premier Pas", Desc: "Mendier pour la première fois", Points: 10, Icon: "footprint"},

	{ID: "time_1h", Name: "Débutant", Desc: "Cumuler 1 heure de mendicité", Points: 20, Icon: "hourglass_bottom"},
	{ID: "time_5h", Name: "Habitué", Desc: "Cumuler 5 heures de mendicité", Points: 60, Icon: "hourglass_empty"},
	{ID: "time_10h", Name: "Professionnel", Desc: "Cumuler 10 heures de mendicité", Points: 150, Icon: "hourglass_top"},
	{ID: "time_24h", Name: "Acharné", Desc: "Cumuler 24 heures de mendicité", Points: 500, Icon: "fire"},
	{ID: "time_100h", Name: "Légende du Trottoir", Desc: "Cumuler 100 heures de mendicité", Points: 2000, Icon: "military_tech"},

	{ID: "explorer_3", Name: "Petit Explorateur", Desc: "Mendier à 3 endroits différents", Points: 50, Icon: "compass"},
	{ID: "explorer_10", Name: "Grand Voyageur", Desc: "Mendier à 10 endroits différents", Points: 200, Icon: "map"},
	{ID: "explorer_15", Name: "Globe-Trotteur", Desc: "Mendier à 15 endroits différents", Points: 300, Icon: "travel_explore"},
	{ID: "explorer_20", Name: "Nomade", Desc: "Mendier à 20 endroits différents", Points: 500, Icon: "public"},
	{ID: "jack_of_all", Name: "Touche-à-tout", Desc: "Visiter chaque grande catégorie de spot", Points: 250, Icon: "category"},

	{ID: "tourist", Name: "Touriste", Desc: "Visiter 3 spots de type Tourisme", Points: 75, Icon: "camera_alt"},
	{ID: "biz_man", Name: "Business Man", Desc: "Visiter 3 spots de type Business", Points: 75, Icon: "business_center"},
	{ID: "night_crawler", Name: "Noctambule", Desc: "Visiter 3 spots de type Nightlife", Points: 75, Icon: "nightlife"},
	{ID: "shopaholic", Name: "Accro du Shopping", Desc: "Visiter 3 spots de type Shopping", Points: 75, Icon: "shopping_bag"},
	{ID: "commuter", Name: "Banlieusard", Desc: "Visiter 3 spots de type Transport", Points: 75, Icon: "train"},
	{ID: "culture_vulture", Name: "Cultivé", Desc: "Visiter 3 spots de type Culture", Points: 75, Icon: "museum"},
	{ID: "market_regular", Name: "Pilier de Marché", Desc: "Visiter 3 spots de type Market", Points: 75, Icon: "storefront"},
	{ID: "event_hunter", Name: "Chasseur d'Événements", Desc: "Visiter 3 spots de type Event", Points: 75, Icon: "celebration"},
	{ID: "nature_lover", Name: "Amoureux de la Nature", Desc: "Visiter 3 spots Nature ou Parc", Points: 75, Icon: "park"},

	{ID: "creator_1", Name: "Cartographe", Desc: "Créer un spot", Points: 30, Icon: "add_location"},
	{ID: "creator_5", Name: "Urbaniste", Desc: "Créer 5 spots", Points: 120, Icon: "add_location_alt"},
	{ID: "creator_10", Name: "Bâtisseur", Desc: "Créer 10 spots", Points: 300, Icon: "location_city"},
	{ID: "critic_1", Name: "Critique", Desc: "Publier un avis", Points: 15, Icon: "rate_review"},
	{ID: "critic_5", Name: "Chroniqueur", Desc: "Publier 5 avis", Points: 60, Icon: "reviews"},
	{ID: "critic_20", Name: "Guide Vivant", Desc: "Publier 20 avis", Points: 250, Icon: "menu_book"},

	{ID: "loyal_5", Name: "Fidèle", Desc: "Revenir 5 fois au même spot", Points: 50, Icon: "favorite"},
	{ID: "loyal_10", Name: "Meuble", Desc: "Revenir 10 fois au même spot", Points: 150, Icon: "chair"},
	{ID: "flash", Name: "Flash", Desc: "Faire 10 sessions de moins de 5 minutes", Points: 40, Icon: "bolt"},
	{ID: "afterwork", Name: "Afterwork", Desc: "Faire 5 sessions entre 17h et 20h", Points: 60, Icon: "local_bar"},
	{ID: "insomniac", Name: "Insomniaque", Desc: "Faire 5 sessions entre minuit et 4h", Points: 120, Icon: "dark_mode"},
	{ID: "gold_digger", Name: "Chercheur d'Or", Desc: "5 sessions dans des spots très rentables", Points: 100, Icon: "paid"},
	{ID: "hard_times", Name: "Temps Durs", Desc: "5 sessions dans des spots peu rentables", Points: 60, Icon: "money_off"},
	{ID: "daredevil", Name: "Casse-cou", Desc: "5 sessions dans des spots peu sûrs", Points: 100, Icon: "warning"},
	{ID: "lone_wolf", Name: "Loup Solitaire", Desc: "5 sessions dans des spots déserts", Points: 60, Icon: "person_off"},

	{ID: "marathon", Name: "Marathonien", Desc: "Une session de plus de 3 heures", Points: 80, Icon: "directions_run"},
	{ID: "camping", Name: "Campeur", Desc: "Une session de plus de 5 heures", Points: 150, Icon: "camping"},
	{ID: "sprint", Name: "Sprint", Desc: "Une session de moins de 5 minutes", Points: 10, Icon: "timer"},
	{ID: "early_bird", Name: "Lève-tôt", Desc: "Commencer une session entre 5h et 8h", Points: 40, Icon: "wb_twilight"},
	{ID: "lunch_time", Name: "Pause Déj", Desc: "Commencer une session entre 12h et 14h", Points: 20, Icon: "lunch_dining"},
	{ID: "night_owl", Name: "Oiseau de Nuit", Desc: "Mendier entre 2h et 5h du matin", Points: 100, Icon: "bedtime"},
	{ID: "weekender", Name: "Week-end", Desc: "Une session le samedi ou le dimanche", Points: 20, Icon: "weekend"},
	{ID: "rich_zone", Name: "Quartier Riche", Desc: "Une session dans un spot noté 4.8+ en revenus", Points: 60, Icon: "diamond"},
	{ID: "safe_zone", Name: "Zone Sûre", Desc: "Une session dans un spot noté 4.8+ en sécurité", Points: 30, Icon: "shield"},
	{ID: "busy_zone", Name: "Foule", Desc: "Une session dans un spot noté 4.8+ en passage", Points: 40, Icon: "groups"},
	{ID: "risk_taker", Name: "Téméraire", Desc: "Une session dans un spot noté moins de 2.5 en sécurité", Points: 50, Icon: "gpp_maybe"},
	{ID: "ghost", Name: "Fantôme", Desc: "Une session dans un spot noté moins de 1.5 en passage", Points: 30, Icon: "visibility_off"},
	{ID: "star", Name: "Star", Desc: "Une session dans un spot rentable et fréquenté", Points: 80, Icon: "star"},
	{ID: "kamikaze", Name: "Kamikaze", Desc: "Une session dans un spot dangereux mais bondé", Points: 120, Icon: "local_fire_department"},
}

// DefaultCatalog returns a copy of the built-in catalog in display order.
func DefaultCatalog() []models.AchievementDefinition {
	out := make([]models.AchievementDefinition, len(defaultCatalog))
	copy(out, defaultCatalog)
	return out
}
