package models

// Remote collections. New collections can be added without touching the
// queue or the planner.
const (
	CollectionProducts           = "products"
	CollectionProductIntake      = "productIntake"
	CollectionProductConsumption = "productConsumption"
	CollectionProductBalance     = "productBalance"
	CollectionGoods              = "goods"
	CollectionGoodsIntake        = "goodsIntake"
	CollectionGoodsConsumption   = "goodsConsumption"
	CollectionGoodsBalance       = "goodsBalance"
	CollectionRecipes            = "recipes"
	CollectionStaff              = "staff"
)

// Collections lists the known collections in display order.
var Collections = []string{
	CollectionProducts,
	CollectionProductIntake,
	CollectionProductConsumption,
	CollectionProductBalance,
	CollectionGoods,
	CollectionGoodsIntake,
	CollectionGoodsConsumption,
	CollectionGoodsBalance,
	CollectionRecipes,
	CollectionStaff,
}

// Sheet column headers.
const (
	FieldBatchID       = "kirim id"
	FieldBatchKind     = "kirim turi"
	FieldBatchDate     = "kirim sana"
	FieldDate          = "sana"
	FieldRecordedAt    = "data time"
	FieldQty           = "miqdor"
	FieldActualQty     = "fakt miqdor"
	FieldUnit          = "birlik"
	FieldPrice         = "narx"
	FieldSum           = "summa"
	FieldOperation     = "operatsiya"
	FieldConsumptionID = "chiqim id"

	FieldProductID    = "product id"
	FieldProduct      = "product"
	FieldProductQty   = "product miqdor"
	FieldProductUnit  = "product birlik"
	FieldProductPrice = "product narx"
	FieldProductSum   = "product summa"

	FieldGoodsID       = "tovar id"
	FieldGoods         = "tovar"
	FieldGoodsType     = "tovar turi"
	FieldGoodsQty      = "tovar miqdor"
	FieldGoodsUnit     = "tovar birlik"
	FieldBaseUnit      = "tovar asl birlik"
	FieldBaseQty       = "tovar asl birlik miqdor"
	FieldBaseRemaining = "tovar asl birlik qoldiq miqdor"
	FieldRemainingQty  = "qoldiq miqdor"
	FieldIntakePrice   = "kirim narx"
	FieldIntakeSum     = "kirim summa"
	FieldRemainingSum  = "qoldiq kirim summa"
	FieldSalePrice     = "sotuv narx"
	FieldSaleAmount    = "sotuv summasi"
	FieldSaleDate      = "sotuv sana"
	FieldSaleID        = "sotuv id"
	FieldCustomer      = "mijoz"
	FieldDishName      = "ovqat nomi"
	FieldDishQty       = "ovqat miqdori"
	FieldSecondaryUnit = "ikkilamchi birlik"
	FieldPrimaryQty    = "asosiy miqdor"
	FieldRecipeID      = "norma id"
	FieldRecipeDate    = "norma rasxod sana"
	FieldRecipeKind    = "rasxod turi"
)

// Batch kinds carried in the "kirim turi" column.
const (
	KindIntake   = "Kirim"
	KindSnapshot = "Qoldiq"
)

// Operation tags.
const (
	OperationProduction = "Ishlab chiqarish"
	OperationPrepare    = "Tayyorlash"
	RecipeKindRecipe    = "Retsept"
	GoodsTypeDish       = "Ovqat"
	DefaultCustomer     = "Umumiy Mijoz"
)

// Epsilon tolerates floating rounding in remaining quantities.
const Epsilon = 1e-4

// IsIntakeKind reports whether a "kirim turi" value denotes an original intake.
func IsIntakeKind(kind string) bool {
	return kind == "" || kind == KindIntake
}
