package lightclient

import (
	"encoding/hex"

	"github.com/adityapk00/zecwallet-lite/sapling"
	"github.com/adityapk00/zecwallet-lite/types"
)

// Checkpoint is a pre-baked (height, block hash, commitment tree) entry the
// wallet can start scanning from, so a fresh wallet does not replay the
// whole chain.
type Checkpoint struct {
	Height int32
	Hash   string
	Tree   string
}

// The checkpoint tables are consumed read-only; entries are exported from
// consensus nodes.
var checkpoints = map[string][]Checkpoint{
	"main": {
		{610000, "000000000218882f481e3b49ca3df819734b8d74aac91f69e848d7499b34b472",
			"0192943f1eca6525cea7ea8e26b37c792593ed50cfe2be7a1ff551a08dc64b812f001000000001deef7ae5162a9942b4b9aa797137c5bdf60750e9548664127df99d1981dda66901747ad24d5daf294ce2a27aba923e16e52e7348eea3048c5b5654b99ab0a371200149d8aff830305beb3887529f6deb150ab012916c3ce88a6b47b78228f8bfeb3f01ff84a89890cfae65e0852bc44d9aa82be2c5d204f5aebf681c9e966aa46f540e000001d58f1dfaa9db0996996129f8c474acb813bfed452d347fb17ebac2e775e209120000000001319312241b0031e3a255b0d708750b4cb3f3fe79e3503fe488cc8db1dd00753801754bb593ea42d231a7ddf367640f09bbf59dc00f2c1d2003cc340e0c016b5b13",
		},
		{690000, "0000000000b1e6422ecd9292951b36ebb94e8926bbd33df8445b574b4be14f79",
			"0117ffc074ef0f54651b2bc78d594e5ff786d9828ae78b1db972cd479669e8dd2401cc1b37d13f3b7d1fa2ead08493d275bfca976dd482e8dd879bf62b987652f63811013d84614158c7810753cc663f7a3da757f84f77744a24490eb07ce07af1daa92e0000017472a22c4064648ff260cbec8d85c273c5cd190dab7800f4978d473322dab1200001c7a1fd3786de051015c90f39143f3cfb89f2ea8bb5155520547ecfbefcdc382a0000000001d0c515cd513b49e397bf96d895a941aed4869ff2ff925939a34572c078dc16470121c1efd29f85680334050ee2a7e0d09fde474f90e573d85b7c9d337a5465625a0000000001d2ea556f49fb934dc76f087935a5c07788000b4e3aae24883adfec51b5f4d260",
		},
		{760000, "0000000001a7e858b316a60b13bdad03b912aa83ccce61c238bdf7f05aec08fb",
			"0113fdec95eabf9536e4bf9307730dfb96671b418f14b546150119f150d9c420200140f6e3d6ff767d57a0caa062f8d38c2ba4ad36d9f8e273ae2fcb650b29edd1451101d2967f74d16444f7e81ffcf644747a742f93071cb04415acfdb47ed2c01b850b000001e14f2e710822089e8251a07b221eb83a2d4340899fe51faccde707d486d3d24400000001606f6ed068c806bbd8ac68bf85ce5306310a20e3de44ac5bea62595b40072d720000000001bf519506fabe22d0eb60ec508201235d370a06d7ae47d2454ed2760b7e38372300017d066851cc49b2ea0cf9fb6af00adbb1cc3a0b15cb02d39e0a66f031b2dc1f230001d2ea556f49fb934dc76f087935a5c07788000b4e3aae24883adfec51b5f4d260",
		},
	},
	"test": {
		{600000, "0107385846c7451480912c294b6ce1ee1feba6c2619079fd9104f6e71e4d8fe7",
			"01690698411e3f8badea7da885e556d7aba365a797e9b20b44ac0946dced14b23c001001ab2a18a5a86aa5d77e43b69071b21770b6fe6b3c26304dcaf7f96c0bb3fed74d000186482712fa0f2e5aa2f2700c4ed49ef360820f323d34e2b447b78df5ec4dfa0401a332e89a21afb073cb1db7d6f07396b56a95e97454b9bca5a63d0ebc575d3a33000000000001c9d3564eff54ebc328eab2e4f1150c3637f4f47516f879a0cfebdf49fe7b1d5201c104705fac60a85596010e41260d07f3a64f38f37a112eaef41cd9d736edc5270145e3d4899fcd7f0f1236ae31eafb3f4b65ad6b11a17eae1729cec09bd3afa01a000000011f8322ef806eb2430dc4a7a41c1b344bea5be946efc7b4349c1c9edb14ff9d39",
		},
		{650000, "003f7e09a357a75c3742af1b7e1189a9038a360cebb9d55e158af94a1c5aa682",
			"010113f257f93a40e25cfc8161022f21c06fa2bc7fb03ee9f9399b3b30c636715301ef5b99706e40a19596d758bf7f4fd1b83c3054557bf7fab4801985642c317d41100001b2ad599fd7062af72bea99438dc5d8c3aa66ab52ed7dee3e066c4e762bd4e42b0001599dd114ec6c4c5774929a342d530bf109b131b48db2d20855afa9d37c92d6390000019159393c84b1bf439d142ed2c54ee8d5f7599a8b8f95e4035a75c30b0ec0fa4c0128e3a018bd08b2a98ed8b6995826f5857a9dc2777ce6af86db1ae68b01c3c53d0000000001e3ec5d790cc9acc2586fc6e9ce5aae5f5aba32d33e386165c248c4a03ec8ed670000011f8322ef806eb2430dc4a7a41c1b344bea5be946efc7b4349c1c9edb14ff9d39",
		},
	},
}

// GetClosestCheckpoint finds the highest checkpoint at or below height, or
// nil when none qualifies.
func GetClosestCheckpoint(chainName string, height int32) *Checkpoint {
	var best *Checkpoint
	for i := range checkpoints[chainName] {
		cp := &checkpoints[chainName][i]
		if cp.Height <= height && (best == nil || cp.Height > best.Height) {
			best = cp
		}
	}
	return best
}

// Materialize decodes the checkpoint's hash and tree.
func (cp *Checkpoint) Materialize() (types.Hash, *sapling.CommitmentTree, error) {
	rawHash, err := hex.DecodeString(cp.Hash)
	if err != nil {
		return types.Hash{}, nil, err
	}
	if len(rawHash) != types.HashSize {
		return types.Hash{}, nil, types.ErrHashWrongLen
	}
	// Block hashes are published in display (reversed) order.
	var h types.Hash
	for i, c := range rawHash {
		h[len(rawHash)-1-i] = c
	}
	rawTree, err := hex.DecodeString(cp.Tree)
	if err != nil {
		return types.Hash{}, nil, err
	}
	tree, err := sapling.TreeFromCheckpoint(rawTree)
	if err != nil {
		return types.Hash{}, nil, err
	}
	return h, tree, nil
}
