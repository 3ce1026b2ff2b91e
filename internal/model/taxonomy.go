package model

// Taxonomy is the label table the shipped model was trained with. Index i is
// the label of output class i; the order must not change.
var Taxonomy = []string{
	"Amanita citrina",
	"Amanita muscaria",
	"Amanita pantherina",
	"Amanita rubescens",
	"Apioperdon pyriforme",
	"Armillaria borealis",
	"Artomyces pyxidatus",
	"Bjerkandera adusta",
	"Boletus edulis",
	"Boletus reticulatus",
	"Calocera viscosa",
	"Calycina citrina",
	"Cantharellus cibarius",
	"Cerioporus squamosus",
	"Cetraria islandica",
	"Chlorociboria aeruginascens",
	"Chondrostereum purpureum",
	"Cladonia fimbriata",
	"Cladonia rangiferina",
	"Cladonia stellaris",
	"Clitocybe nebularis",
	"Coltricia perennis",
	"Coprinellus disseminatus",
	"Coprinellus micaceus",
	"Coprinopsis atramentaria",
	"Coprinus comatus",
	"Crucibulum laeve",
	"Daedaleopsis confragosa",
	"Daedaleopsis tricolor",
	"Evernia mesomorpha",
	"Evernia prunastri",
	"Flammulina velutipes",
	"Fomes fomentarius",
	"Fomitopsis betulina",
	"Fomitopsis pinicola",
	"Ganoderma applanatum",
	"Graphis scripta",
	"Gyromitra esculenta",
	"Gyromitra gigas",
	"Gyromitra infula",
	"Hericium coralloides",
	"Hygrophoropsis aurantiaca",
	"Hypholoma fasciculare",
	"Hypholoma lateritium",
	"Hypogymnia physodes",
	"Imleria badia",
	"Inonotus obliquus",
	"Kuehneromyces mutabilis",
	"Lactarius deliciosus",
	"Lactarius torminosus",
	"Lactarius turpis",
	"Laetiporus sulphureus",
	"Leccinum albostipitatum",
	"Leccinum aurantiacum",
	"Leccinum scabrum",
	"Leccinum versipelle",
	"Lepista nuda",
	"Lobaria pulmonaria",
	"Lycoperdon perlatum",
	"Macrolepiota procera",
	"Merulius tremellosus",
	"Mutinus ravenelii",
	"Nectria cinnabarina",
	"Panellus stipticus",
	"Parmelia sulcata",
	"Paxillus involutus",
	"Peltigera aphthosa",
	"Peltigera praetextata",
	"Phaeophyscia orbicularis",
	"Phallus impudicus",
	"Phellinus igniarius",
	"Phellinus tremulae",
	"Phlebia radiata",
	"Pholiota aurivella",
	"Pholiota squarrosa",
	"Physcia adscendens",
	"Platismatia glauca",
	"Pleurotus ostreatus",
	"Pleurotus pulmonarius",
	"Pseudevernia furfuracea",
	"Rhytisma acerinum",
	"Sarcomyxa serotina",
	"Sarcoscypha austriaca",
	"Sarcosoma globosum",
	"Schizophyllum commune",
	"Stereum hirsutum",
	"Stropharia aeruginosa",
	"Suillus granulatus",
	"Suillus grevillei",
	"Suillus luteus",
	"Trametes hirsuta",
	"Trametes ochracea",
	"Trametes versicolor",
	"Tremella mesenterica",
	"Trichaptum biforme",
	"Tricholomopsis rutilans",
	"Urnula craterium",
	"Verpa bohemica",
	"Vulpicida pinastri",
	"Xanthoria parietina",
}
